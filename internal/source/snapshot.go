package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/realitycheck/internal/extract"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/util"
	"gopkg.in/yaml.v3"
)

// SnapshotSource replays a frozen evidence snapshot
type SnapshotSource struct {
	snapshot *model.EvidenceSnapshot
}

// NewSnapshotSource wraps an in-memory snapshot
func NewSnapshotSource(snapshot *model.EvidenceSnapshot) *SnapshotSource {
	return &SnapshotSource{snapshot: snapshot}
}

// OpenSnapshotSource loads a snapshot file
func OpenSnapshotSource(path string) (*SnapshotSource, error) {
	snapshot, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return NewSnapshotSource(snapshot), nil
}

func (s *SnapshotSource) checkRepo(repo string) error {
	if repo == "" || s.snapshot.Repo == "" {
		return nil
	}
	want, err := model.ParseRepo(repo)
	if err != nil {
		return err
	}
	have, err := model.ParseRepo(s.snapshot.Repo)
	if err != nil {
		return err
	}
	if !strings.EqualFold(want.String(), have.String()) {
		return fmt.Errorf("snapshot is for %s, not %s", have, want)
	}
	return nil
}

// FetchDocumentation returns the frozen README
func (s *SnapshotSource) FetchDocumentation(_ context.Context, repo string) (model.Documentation, error) {
	if err := s.checkRepo(repo); err != nil {
		return model.Documentation{}, err
	}
	return s.snapshot.Documentation, nil
}

// FetchIssues applies the filter to the frozen issues. The activity window
// is not applied because snapshots carry ages, not update times.
func (s *SnapshotSource) FetchIssues(_ context.Context, repo string, filter IssueFilter) ([]model.EvidenceItem, error) {
	if err := s.checkRepo(repo); err != nil {
		return nil, err
	}

	var items []model.EvidenceItem
	for _, item := range s.snapshot.Issues {
		if item.IsPullRequest {
			continue
		}
		if !filter.IncludeClosed && !item.IsOpen() {
			continue
		}
		if len(filter.Labels) > 0 && !hasAnyLabel(&item, filter.Labels) {
			continue
		}
		items = append(items, item)
		if filter.MaxIssues > 0 && len(items) >= filter.MaxIssues {
			break
		}
	}
	return items, nil
}

func hasAnyLabel(item *model.EvidenceItem, labels []string) bool {
	for _, l := range labels {
		if item.HasLabel(l) {
			return true
		}
	}
	return false
}

// FetchChurn returns the frozen churn metric, if any
func (s *SnapshotSource) FetchChurn(_ context.Context, repo string) (*model.ChurnMetric, error) {
	if err := s.checkRepo(repo); err != nil {
		return nil, err
	}
	return s.snapshot.Churn, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadSnapshot reads a snapshot from a JSON or YAML file, chosen by extension
func LoadSnapshot(path string) (*model.EvidenceSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot model.EvidenceSnapshot
	if isYAML(path) {
		err = yaml.Unmarshal(data, &snapshot)
	} else {
		err = json.Unmarshal(data, &snapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	if len(snapshot.Documentation.Sections) == 0 {
		snapshot.Documentation.Sections = extract.SplitSections(snapshot.Documentation.Text)
	}
	return &snapshot, nil
}

// SaveSnapshot writes a snapshot atomically as JSON or YAML, chosen by extension
func SaveSnapshot(path string, snapshot *model.EvidenceSnapshot) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(snapshot)
	} else {
		data, err = json.MarshalIndent(snapshot, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := util.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
