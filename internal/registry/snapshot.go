package registry

import (
	"encoding/json"
	"fmt"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/situation"
	"github.com/gridiron-labs/playcall/internal/trie"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// SituationRecord is the serialized trie of one situation key.
type SituationRecord struct {
	Key      situation.Key `json:"key"`
	Examples int64         `json:"examples"`
	Trie     trie.Record   `json:"trie"`
}

// Snapshot is a complete, self-describing copy of a registry.
type Snapshot struct {
	Version     int                       `json:"version"`
	MaxDepth    int                       `json:"max_depth"`
	MinExamples int                       `json:"min_examples"`
	Alphabet    []models.Symbol           `json:"alphabet"`
	Labels      map[models.Symbol]string  `json:"labels,omitempty"`
	Extensions  []string                  `json:"extensions,omitempty"`
	Default     map[models.Symbol]float64 `json:"default"`
	Situations  []SituationRecord         `json:"situations"`
}

// Snapshot copies the registry. Each trie is read under its own lock, so a
// snapshot taken during training is consistent per key, not across keys.
func (r *Registry) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:     SnapshotVersion,
		MaxDepth:    r.policy.MaxDepth,
		MinExamples: r.policy.MinExamples,
		Alphabet:    r.policy.Alphabet.Symbols(),
		Labels:      r.policy.Alphabet.Labels(),
		Extensions:  r.policy.Extensions.Names(),
		Default:     make(map[models.Symbol]float64, len(r.policy.Default)),
	}
	for s, p := range r.policy.Default {
		snap.Default[s] = p
	}

	for _, key := range r.Keys() {
		e := r.lookup(key)
		e.mu.RLock()
		rec := SituationRecord{Key: key, Examples: e.examples, Trie: e.trie.Export()}
		e.mu.RUnlock()
		snap.Situations = append(snap.Situations, rec)
	}
	return snap
}

// Policy rebuilds the policy a snapshot was taken with.
func (s *Snapshot) Policy() (Policy, error) {
	alphabet, err := models.NewAlphabet(s.Alphabet)
	if err != nil {
		return Policy{}, &models.ConfigurationError{Field: "alphabet", Reason: err.Error()}
	}
	for sym, l := range s.Labels {
		alphabet.SetLabel(sym, l)
	}
	ext, err := situation.ParseExtensions(s.Extensions)
	if err != nil {
		return Policy{}, &models.ConfigurationError{Field: "extensions", Reason: err.Error()}
	}
	return Policy{
		MaxDepth:    s.MaxDepth,
		MinExamples: s.MinExamples,
		Alphabet:    alphabet,
		Extensions:  ext,
		Default:     s.Default,
	}, nil
}

// FromSnapshot rebuilds a registry. The snapshot's policy is used as is.
func FromSnapshot(s *Snapshot) (*Registry, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	policy, err := s.Policy()
	if err != nil {
		return nil, err
	}
	r, err := New(policy)
	if err != nil {
		return nil, err
	}

	for _, sr := range s.Situations {
		if _, dup := r.tries[sr.Key]; dup {
			return nil, fmt.Errorf("snapshot lists situation %s twice", sr.Key)
		}
		if sr.Trie.MaxDepth != policy.MaxDepth {
			return nil, fmt.Errorf("situation %s: trie depth %d does not match model depth %d", sr.Key, sr.Trie.MaxDepth, policy.MaxDepth)
		}
		t, err := trie.Import(policy.Alphabet, sr.Trie)
		if err != nil {
			return nil, fmt.Errorf("situation %s: %w", sr.Key, err)
		}
		r.tries[sr.Key] = &entry{trie: t, examples: sr.Examples}
	}
	return r, nil
}

// MarshalSnapshot encodes a snapshot as JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes and rebuilds a registry from JSON.
func UnmarshalSnapshot(data []byte) (*Registry, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(&s)
}
