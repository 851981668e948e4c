package registry

import (
	"sort"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/situation"
	"github.com/gridiron-labs/playcall/internal/trie"
)

// Level is the rung of the fallback ladder that produced a prediction.
type Level string

const (
	LevelSpecific Level = "SPECIFIC"
	LevelBase     Level = "BASE"
	LevelDefault  Level = "DEFAULT"
)

// Levels lists the ladder in evaluation order.
func Levels() []Level {
	return []Level{LevelSpecific, LevelBase, LevelDefault}
}

// Result is a resolved prediction with its provenance.
type Result struct {
	Ranked       []trie.Ranked
	MatchedDepth int
	Level        Level
	SpecificKey  situation.Key
	BaseKey      situation.Key
}

// Source answers the trie lookup of one rung. ok is false when no trie
// exists for the rung's key.
type Source interface {
	Predict(context models.Sequence, k int) (pred trie.Prediction, ok bool, err error)
}

// Rung pairs a ladder level with its source.
type Rung struct {
	Level  Level
	Source Source
}

// Resolver walks the fallback ladder. It holds no mutable state.
type Resolver struct {
	alphabet    *models.Alphabet
	minExamples int64
	defaults    []trie.Ranked
}

// NewResolver validates the policy and precomputes the ranked default.
func NewResolver(p Policy) (*Resolver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	defaults := make([]trie.Ranked, 0, len(p.Default))
	for s, prob := range p.Default {
		if prob > 0 {
			defaults = append(defaults, trie.Ranked{Symbol: s, Probability: prob})
		}
	}
	sort.Slice(defaults, func(i, j int) bool {
		if defaults[i].Probability != defaults[j].Probability {
			return defaults[i].Probability > defaults[j].Probability
		}
		return p.Alphabet.Order(defaults[i].Symbol) < p.Alphabet.Order(defaults[j].Symbol)
	})

	return &Resolver{
		alphabet:    p.Alphabet,
		minExamples: int64(p.MinExamples),
		defaults:    defaults,
	}, nil
}

// Sufficient reports whether a rung's prediction carries enough evidence:
// the matched node, after backoff, must have at least MinExamples visits.
func (r *Resolver) Sufficient(p trie.Prediction) bool {
	return !p.Empty() && p.Support >= r.minExamples
}

// Resolve tries each rung in order and falls back to the default
// distribution. Only invalid input (bad k, unknown symbols) is an error.
func (r *Resolver) Resolve(context models.Sequence, k int, rungs ...Rung) (Result, error) {
	if k < 1 {
		return Result{}, trie.ErrInvalidK
	}
	if err := r.alphabet.Validate(context); err != nil {
		return Result{}, err
	}

	for _, rung := range rungs {
		if rung.Source == nil {
			continue
		}
		pred, ok, err := rung.Source.Predict(context, k)
		if err != nil {
			return Result{}, err
		}
		if ok && r.Sufficient(pred) {
			return Result{Ranked: pred.Ranked, MatchedDepth: pred.MatchedDepth, Level: rung.Level}, nil
		}
	}

	return Result{Ranked: r.Default(k), MatchedDepth: 0, Level: LevelDefault}, nil
}

// Default returns the top k entries of the default distribution, renormalized.
func (r *Resolver) Default(k int) []trie.Ranked {
	n := min(k, len(r.defaults))
	var total float64
	for _, d := range r.defaults[:n] {
		total += d.Probability
	}
	out := make([]trie.Ranked, n)
	for i, d := range r.defaults[:n] {
		out[i] = trie.Ranked{Symbol: d.Symbol, Probability: d.Probability / total}
	}
	return out
}
