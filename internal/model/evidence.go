package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EvidenceItem is a normalized, non-pull-request issue used as real-world signal.
// Items are shared read-only across every claim that matches them.
type EvidenceItem struct {
	ID            string     `json:"id" yaml:"id"`
	Number        int        `json:"number,omitempty" yaml:"number,omitempty"`
	Title         string     `json:"title" yaml:"title"`
	BodyExcerpt   string     `json:"body_excerpt" yaml:"body_excerpt"`
	State         IssueState `json:"state" yaml:"state"`
	AgeDays       int        `json:"age_days" yaml:"age_days"`
	Labels        []string   `json:"labels" yaml:"labels"`
	IsPullRequest bool       `json:"is_pull_request" yaml:"is_pull_request"`
	URL           string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// IssueState is the lifecycle state of an issue
type IssueState string

const (
	StateOpen   IssueState = "open"
	StateClosed IssueState = "closed"
)

// IsOpen reports whether the item is still open
func (e *EvidenceItem) IsOpen() bool {
	return e.State == StateOpen
}

// HasLabel reports whether the item carries the label (case-insensitive)
func (e *EvidenceItem) HasLabel(name string) bool {
	for _, l := range e.Labels {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// SearchText returns the lowercased title and body used for keyword rules
func (e *EvidenceItem) SearchText() string {
	return strings.ToLower(e.Title + "\n" + e.BodyExcerpt)
}

// Ref returns the identifier used when citing this item in reasoning
func (e *EvidenceItem) Ref() string {
	return "#" + e.ID
}

// EvidenceSetHash returns an order-independent content hash of a set of items
func EvidenceSetHash(items []*EvidenceItem) string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		labels := append([]string(nil), item.Labels...)
		sort.Strings(labels)
		keys = append(keys, strings.Join([]string{
			item.ID,
			item.Title,
			item.BodyExcerpt,
			string(item.State),
			strconv.Itoa(item.AgeDays),
			strings.Join(labels, ","),
		}, "\x1f"))
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Documentation is the README text of a repository at a specific revision
type Documentation struct {
	Text     string    `json:"text" yaml:"text"`
	Revision string    `json:"revision" yaml:"revision"`
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Section is a named slice of the documentation text.
// Text is always a verbatim substring of Documentation.Text.
type Section struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
}

// ChurnMetric counts commits that touched core abstraction files in a window
type ChurnMetric struct {
	Paths      []string `json:"paths" yaml:"paths"`
	Commits    int      `json:"commits" yaml:"commits"`
	WindowDays int      `json:"window_days" yaml:"window_days"`
}

// EvidenceSnapshot is the frozen input of one analysis run
type EvidenceSnapshot struct {
	Repo          string         `json:"repo" yaml:"repo"`
	Documentation Documentation  `json:"documentation" yaml:"documentation"`
	Issues        []EvidenceItem `json:"issues" yaml:"issues"`
	Churn         *ChurnMetric   `json:"churn,omitempty" yaml:"churn,omitempty"`
	FetchedAt     time.Time      `json:"fetched_at" yaml:"fetched_at"`
}

// EligibleIssues returns pointers to every non-pull-request issue in the snapshot
func (s *EvidenceSnapshot) EligibleIssues() []*EvidenceItem {
	items := make([]*EvidenceItem, 0, len(s.Issues))
	for i := range s.Issues {
		if s.Issues[i].IsPullRequest {
			continue
		}
		items = append(items, &s.Issues[i])
	}
	return items
}
