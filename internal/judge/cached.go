package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/ppiankov/realitycheck/internal/cache"
	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// CachedJudge memoises assessments by content: the same claim, evidence set,
// use case and floor always map to the same key.
type CachedJudge struct {
	inner    Judge
	identity string
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// identifier is implemented by judges whose output depends on more than
// their name, such as a model or prompt version
type identifier interface {
	CacheIdentity() string
}

// NewCachedJudge wraps inner with c. A nil cache disables memoisation.
func NewCachedJudge(inner Judge, c cache.Cache, ttl time.Duration, logger *zap.Logger) Judge {
	if c == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	identity := inner.Name()
	if id, ok := inner.(identifier); ok {
		identity = id.CacheIdentity()
	}
	return &CachedJudge{inner: inner, identity: identity, cache: c, ttl: ttl, logger: logger}
}

// Name returns the wrapped judge's name
func (j *CachedJudge) Name() string {
	return j.inner.Name()
}

// Assess returns the cached assessment or asks the wrapped judge
func (j *CachedJudge) Assess(ctx context.Context, req Request) (*Assessment, error) {
	key := Key(j.identity, req)

	var cached Assessment
	if cache.GetJSON(j.cache, key, &cached) {
		j.logger.Debug("judgment cache hit", zap.String("claim", req.Claim.Text))
		return &cached, nil
	}

	a, err := j.inner.Assess(ctx, req)
	if err != nil {
		return nil, err
	}
	// Only assessments that pass validation are worth replaying
	if ValidateAssessment(a, req.Evidence) == nil {
		if err := cache.SetJSON(j.cache, key, a, j.ttl); err != nil {
			j.logger.Warn("failed to cache judgment", zap.Error(err))
		}
	}
	return a, nil
}

// Key is the content address of a judgment request. identity is the judge's
// cache identity, its name when it has nothing more specific.
func Key(identity string, req Request) string {
	useCase := sha256.Sum256([]byte(req.UseCase))
	return cache.CacheKey(
		"judgment",
		identity,
		req.Claim.Hash(),
		model.EvidenceSetHash(req.Evidence),
		hex.EncodeToString(useCase[:]),
		strconv.Itoa(req.FloorPenalty),
	)
}
