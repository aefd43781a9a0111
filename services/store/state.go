package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Fingerprint returns the dedup identity of a normalized link: the
// lowercase hex SHA-256 of its string form.
func Fingerprint(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}

// State is the persisted watch state. The seen set only grows.
type State struct {
	Initialized bool
	seen        map[string]struct{}
}

// NewState returns a fresh, uninitialized state
func NewState() *State {
	return &State{seen: make(map[string]struct{})}
}

// Has reports whether fingerprint was already seen
func (s *State) Has(fingerprint string) bool {
	_, ok := s.seen[fingerprint]
	return ok
}

// Add records fingerprint and reports whether it was new
func (s *State) Add(fingerprint string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[fingerprint]; ok {
		return false
	}
	s.seen[fingerprint] = struct{}{}
	return true
}

// Len returns the number of seen fingerprints
func (s *State) Len() int {
	return len(s.seen)
}

// Fingerprints returns the seen set in sorted order
func (s *State) Fingerprints() []string {
	out := make([]string, 0, len(s.seen))
	for fp := range s.seen {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// Store persists State between cycles.
//
// Load never fails: unreadable or absent state yields a fresh State and a
// warning. Save returns a persist error only when the write cannot complete,
// and a successful Save fully replaces the previous state.
type Store interface {
	Load(ctx context.Context) *State
	Save(ctx context.Context, state *State) error
}
