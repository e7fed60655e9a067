package model

import (
	"fmt"
	"strings"
)

// RepoRef identifies a GitHub repository
type RepoRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// String returns the canonical owner/name form
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo accepts "owner/name", "github.com/owner/name" and full
// https URLs, with or without a trailing ".git"
func ParseRepo(s string) (RepoRef, error) {
	raw := strings.TrimSpace(s)
	trimmed := strings.TrimPrefix(raw, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "www.")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "/"), ".git")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repository %q: expected owner/name", raw)
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}
