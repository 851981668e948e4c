// Package registry keeps one play trie per situation key and resolves
// predictions through the specific → base → default fallback ladder.
package registry

import (
	"fmt"
	"math"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/situation"
)

const (
	DefaultMaxDepth    = 8
	DefaultMinExamples = 50
	// distributionTolerance bounds how far a default distribution may be from summing to 1.
	distributionTolerance = 1e-6
)

// LeagueAverage is the league-wide pass/run split used when no trie has enough data.
func LeagueAverage() map[models.Symbol]float64 {
	return map[models.Symbol]float64{models.Pass: 0.58, models.Run: 0.42}
}

// Policy is the full model configuration.
type Policy struct {
	MaxDepth    int
	MinExamples int
	Alphabet    *models.Alphabet
	Extensions  situation.Extensions
	Default     map[models.Symbol]float64
}

// DefaultPolicy returns the pass/run model without extension dimensions.
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth:    DefaultMaxDepth,
		MinExamples: DefaultMinExamples,
		Alphabet:    models.DefaultAlphabet(),
		Default:     LeagueAverage(),
	}
}

// Validate checks the policy. A missing default distribution is an
// EmptyModelError; every other problem is a ConfigurationError.
func (p Policy) Validate() error {
	if p.Alphabet == nil || p.Alphabet.Size() == 0 {
		return &models.ConfigurationError{Field: "alphabet", Reason: "must not be empty"}
	}
	if p.MaxDepth <= 0 {
		return &models.ConfigurationError{Field: "max_depth", Reason: fmt.Sprintf("must be positive, got %d", p.MaxDepth)}
	}
	if p.MinExamples < 0 {
		return &models.ConfigurationError{Field: "min_examples", Reason: fmt.Sprintf("must not be negative, got %d", p.MinExamples)}
	}
	if len(p.Default) == 0 {
		return &models.EmptyModelError{}
	}

	var sum float64
	for s, prob := range p.Default {
		if !p.Alphabet.Contains(s) {
			return &models.ConfigurationError{Field: "default", Reason: fmt.Sprintf("symbol %q is not in the alphabet", string(s))}
		}
		if prob < 0 || math.IsNaN(prob) {
			return &models.ConfigurationError{Field: "default", Reason: fmt.Sprintf("probability of %q must be non-negative", string(s))}
		}
		sum += prob
	}
	if math.Abs(sum-1) > distributionTolerance {
		return &models.ConfigurationError{Field: "default", Reason: fmt.Sprintf("probabilities sum to %.6f, want 1", sum)}
	}
	return nil
}
