package registry

import (
	"sync"
	"sync/atomic"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/situation"
	"github.com/gridiron-labs/playcall/internal/trie"
)

// entry is the trie of one situation key. Each entry has its own lock so
// writers of unrelated situations never contend.
type entry struct {
	mu       sync.RWMutex
	trie     *trie.Trie
	examples int64
}

// Predict implements Source. A nil entry means the key was never trained.
func (e *entry) Predict(context models.Sequence, k int) (trie.Prediction, bool, error) {
	if e == nil {
		return trie.Prediction{}, false, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	pred, err := e.trie.Predict(context, k)
	return pred, true, err
}

// Registry owns one trie per situation key, created lazily on first insert.
// Tries are never removed. All methods are safe for concurrent use.
type Registry struct {
	policy     Policy
	classifier *situation.Classifier
	resolver   *Resolver

	mu    sync.RWMutex
	tries map[situation.Key]*entry

	fallback [3]atomic.Int64
}

// New creates an empty registry. The policy is validated here, so a registry
// that exists can always answer a query.
func New(policy Policy) (*Registry, error) {
	resolver, err := NewResolver(policy)
	if err != nil {
		return nil, err
	}
	return &Registry{
		policy:     policy,
		classifier: situation.NewClassifier(policy.Extensions),
		resolver:   resolver,
		tries:      make(map[situation.Key]*entry),
	}, nil
}

// Policy returns the configuration the registry was built with.
func (r *Registry) Policy() Policy {
	return r.policy
}

// Classifier returns the situation classifier in use.
func (r *Registry) Classifier() *situation.Classifier {
	return r.classifier
}

func (r *Registry) lookup(key situation.Key) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tries[key]
}

func (r *Registry) getOrCreate(key situation.Key) *entry {
	if e := r.lookup(key); e != nil {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.tries[key]; ok {
		return e
	}
	// New cannot fail here: the policy was validated in New.
	t, _ := trie.New(r.policy.Alphabet, r.policy.MaxDepth)
	e := &entry{trie: t}
	r.tries[key] = e
	return e
}

// Insert classifies the situation and records seq in both the specific and
// the base trie (once when they coincide).
func (r *Registry) Insert(f models.SituationFeatures, seq models.Sequence, aux []float64) error {
	if err := r.policy.Alphabet.Validate(seq); err != nil {
		return err
	}
	if len(seq) == 0 {
		return nil
	}
	specific, base := r.classifier.Classify(f)

	keys := []situation.Key{specific}
	if base != specific {
		keys = append(keys, base)
	}
	for _, key := range keys {
		e := r.getOrCreate(key)
		e.mu.Lock()
		err := e.trie.Insert(seq, aux)
		if err == nil {
			e.examples++
		}
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertDrive trains on a whole drive. For every play, the window of plays
// ending at it (at most MaxDepth long) is inserted under that play's
// situation. It returns the number of windows inserted.
func (r *Registry) InsertDrive(d *models.Drive) (int, error) {
	seq := d.Sequence()
	if err := r.policy.Alphabet.Validate(seq); err != nil {
		return 0, err
	}
	aux := d.EPAs()

	for i := range seq {
		start := max(0, i+1-r.policy.MaxDepth)
		if err := r.Insert(d.Plays[i].Features(), seq[start:i+1], aux[start:i+1]); err != nil {
			return i, err
		}
	}
	return len(seq), nil
}

// ContextFor trims the plays of a drive so far to the context shape that
// InsertDrive windows answer: the trailing MaxDepth-1 plays.
func (r *Registry) ContextFor(soFar models.Sequence) models.Sequence {
	n := r.policy.MaxDepth - 1
	if len(soFar) > n {
		return soFar[len(soFar)-n:]
	}
	return soFar
}

// Predict classifies the situation and resolves the prediction through the
// specific → base → default ladder.
func (r *Registry) Predict(f models.SituationFeatures, context models.Sequence, k int) (Result, error) {
	specific, base := r.classifier.Classify(f)

	rungs := []Rung{{Level: LevelSpecific, Source: r.lookup(specific)}}
	if base != specific {
		rungs = append(rungs, Rung{Level: LevelBase, Source: r.lookup(base)})
	}

	res, err := r.resolver.Resolve(context, k, rungs...)
	if err != nil {
		return Result{}, err
	}
	res.SpecificKey = specific
	res.BaseKey = base
	r.fallback[levelIndex(res.Level)].Add(1)
	return res, nil
}

// Resolver exposes the fallback ladder, e.g. to inspect sufficiency.
func (r *Registry) Resolver() *Resolver {
	return r.resolver
}

// Len returns the number of situation keys with a trie.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tries)
}

// Keys returns every trained key, sorted by string form.
func (r *Registry) Keys() []situation.Key {
	r.mu.RLock()
	keys := make([]situation.Key, 0, len(r.tries))
	for k := range r.tries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	situation.SortKeys(keys)
	return keys
}

// PredictKey queries the trie of one key directly, bypassing the ladder.
// ok is false when the key was never trained.
func (r *Registry) PredictKey(key situation.Key, context models.Sequence, k int) (trie.Prediction, bool, error) {
	return r.lookup(key).Predict(context, k)
}

// FallbackCounts returns how many predictions each ladder level produced.
func (r *Registry) FallbackCounts() map[Level]int64 {
	out := make(map[Level]int64, 3)
	for _, l := range Levels() {
		out[l] = r.fallback[levelIndex(l)].Load()
	}
	return out
}

func levelIndex(l Level) int {
	switch l {
	case LevelSpecific:
		return 0
	case LevelBase:
		return 1
	}
	return 2
}

// TrieStats describes the trie of one key.
type TrieStats struct {
	Key        situation.Key
	Examples   int64
	Sufficient bool
	trie.Stats
}

// Stats summarizes every trie in the registry.
type Stats struct {
	MaxDepth         int
	MinExamples      int
	Extensions       []string
	TotalExamples    int64
	SufficientGroups int
	SparseGroups     int
	Tries            []TrieStats
	Fallback         map[Level]int64
}

// Stats walks every trie. Sufficiency here is by example count per key.
func (r *Registry) Stats() Stats {
	st := Stats{
		MaxDepth:    r.policy.MaxDepth,
		MinExamples: r.policy.MinExamples,
		Extensions:  r.policy.Extensions.Names(),
		Fallback:    r.FallbackCounts(),
	}
	for _, key := range r.Keys() {
		e := r.lookup(key)
		e.mu.RLock()
		ts := TrieStats{Key: key, Examples: e.examples, Stats: e.trie.Stats()}
		e.mu.RUnlock()

		ts.Sufficient = ts.Examples >= int64(r.policy.MinExamples)
		if ts.Sufficient {
			st.SufficientGroups++
		} else {
			st.SparseGroups++
		}
		st.TotalExamples += ts.Examples
		st.Tries = append(st.Tries, ts)
	}
	return st
}
