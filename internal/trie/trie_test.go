package trie

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-labs/playcall/internal/models"
)

const (
	P = models.Pass
	R = models.Run
)

func seq(symbols ...models.Symbol) models.Sequence {
	return models.Sequence(symbols)
}

func newTestTrie(t *testing.T, maxDepth int) *Trie {
	t.Helper()
	tr, err := New(models.DefaultAlphabet(), maxDepth)
	require.NoError(t, err)
	return tr
}

func probs(p Prediction) map[models.Symbol]float64 {
	out := make(map[models.Symbol]float64, len(p.Ranked))
	for _, r := range p.Ranked {
		out[r.Symbol] = r.Probability
	}
	return out
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(models.DefaultAlphabet(), 0)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "max_depth", cfgErr.Field)

	_, err = New(nil, 4)
	require.ErrorAs(t, err, &cfgErr)
}

func TestPredict_PassRunScenario(t *testing.T) {
	tr := newTestTrie(t, 8)
	require.NoError(t, tr.Insert(seq(P, P, R), nil))
	require.NoError(t, tr.Insert(seq(P, R, P), nil))

	tests := []struct {
		name      string
		context   models.Sequence
		want      map[models.Symbol]float64
		wantDepth int
	}{
		{"after pass", seq(P), map[models.Symbol]float64{P: 0.5, R: 0.5}, 1},
		{"after pass pass", seq(P, P), map[models.Symbol]float64{R: 1.0}, 2},
		{"after pass run", seq(P, R), map[models.Symbol]float64{P: 1.0}, 2},
		{"unseen first symbol backs off to root", seq(R, P), map[models.Symbol]float64{P: 1.0}, 0},
		{"empty context is the root", seq(), map[models.Symbol]float64{P: 1.0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Predict(tt.context, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDepth, got.MatchedDepth)
			require.Len(t, got.Ranked, len(tt.want))
			for s, p := range tt.want {
				assert.InDelta(t, p, probs(got)[s], 1e-9, "symbol %s", s)
			}
		})
	}
}

func TestPredict_TieBreaksByAlphabetOrder(t *testing.T) {
	tr := newTestTrie(t, 4)
	require.NoError(t, tr.Insert(seq(R), nil))
	require.NoError(t, tr.Insert(seq(P), nil))

	got, err := tr.Predict(nil, 2)
	require.NoError(t, err)
	require.Len(t, got.Ranked, 2)
	assert.Equal(t, P, got.Ranked[0].Symbol)
	assert.Equal(t, R, got.Ranked[1].Symbol)
}

func TestPredict_TopKIsRenormalized(t *testing.T) {
	tr := newTestTrie(t, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.Insert(seq(P), nil))
	}
	require.NoError(t, tr.Insert(seq(R), nil))

	got, err := tr.Predict(nil, 1)
	require.NoError(t, err)
	require.Len(t, got.Ranked, 1)
	assert.Equal(t, P, got.Ranked[0].Symbol)
	assert.InDelta(t, 1.0, got.Ranked[0].Probability, 1e-9)
	assert.Equal(t, int64(4), got.Support)
}

func TestPredict_InvalidK(t *testing.T) {
	tr := newTestTrie(t, 4)
	_, err := tr.Predict(seq(P), 0)
	assert.True(t, errors.Is(err, ErrInvalidK))
}

func TestPredict_EmptyTrie(t *testing.T) {
	tr := newTestTrie(t, 4)
	got, err := tr.Predict(seq(P, R), 3)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, 0, got.MatchedDepth)
	assert.Equal(t, int64(0), got.Support)
}

func TestInsert_InvalidSymbolLeavesTrieUntouched(t *testing.T) {
	tr := newTestTrie(t, 4)
	err := tr.Insert(seq(P, "X", R), nil)

	var symErr *models.InvalidSymbolError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, models.Symbol("X"), symErr.Symbol)
	assert.Equal(t, 1, symErr.Position)
	assert.Equal(t, int64(0), tr.Root().Visits())
	assert.Equal(t, int64(0), tr.Sequences())

	_, err = tr.Predict(seq("Q"), 1)
	require.ErrorAs(t, err, &symErr)
}

func TestInsert_TruncatesToMaxDepth(t *testing.T) {
	tr := newTestTrie(t, 2)
	require.NoError(t, tr.Insert(seq(P, P, R, R, R), nil))

	stats := tr.Stats()
	assert.Equal(t, 3, stats.Nodes) // root, P, PP
	assert.Equal(t, int64(1), stats.Sequences)

	// Only the trailing two symbols of a long context are consulted:
	// [P P R] is read as [P R], which matches P and then backs off.
	require.NoError(t, tr.Insert(seq(R, P), nil))
	got, err := tr.Predict(seq(P, P, R), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MatchedDepth)
	assert.InDelta(t, 1.0, probs(got)[P], 1e-9)
}

func TestInsert_AuxAggregate(t *testing.T) {
	tr := newTestTrie(t, 4)
	require.NoError(t, tr.Insert(seq(P, R), []float64{0.5, -0.2}))
	require.NoError(t, tr.Insert(seq(P, P), []float64{1.5, math.NaN()}))
	require.NoError(t, tr.Insert(seq(P), nil))

	avg, err := tr.AuxAverage(nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, avg, 1e-9)

	avg, err = tr.AuxAverage(seq(P))
	require.NoError(t, err)
	assert.InDelta(t, -0.2, avg, 1e-9)
}

func TestInvariant_HistogramSumsToVisits(t *testing.T) {
	tr := newTestTrie(t, 3)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		require.NoError(t, tr.Insert(randomSequence(rng, 1+rng.Intn(6)), nil))
	}

	stack := []*Node{tr.Root()}
	depths := []int{0}
	for len(stack) > 0 {
		n, d := stack[len(stack)-1], depths[len(depths)-1]
		stack, depths = stack[:len(stack)-1], depths[:len(depths)-1]

		var sum int64
		for _, c := range n.next {
			sum += c
		}
		require.Equal(t, n.Visits(), sum)
		require.LessOrEqual(t, d, tr.MaxDepth())
		for _, c := range n.children {
			stack = append(stack, c)
			depths = append(depths, d+1)
		}
	}
}

func TestProperty_DistributionIsNormalized(t *testing.T) {
	tr := newTestTrie(t, 4)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		require.NoError(t, tr.Insert(randomSequence(rng, 1+rng.Intn(8)), nil))
	}

	for i := 0; i < 200; i++ {
		k := 1 + rng.Intn(3)
		got, err := tr.Predict(randomSequence(rng, rng.Intn(10)), k)
		require.NoError(t, err)
		if got.Empty() {
			require.Equal(t, int64(0), got.Support)
			continue
		}
		require.LessOrEqual(t, len(got.Ranked), k)
		require.LessOrEqual(t, len(got.Ranked), 2)

		var sum float64
		for _, r := range got.Ranked {
			require.GreaterOrEqual(t, r.Probability, 0.0)
			sum += r.Probability
		}
		require.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestProperty_LastSymbolIsPredicted(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		tr := newTestTrie(t, 6)
		s := randomSequence(rng, 1+rng.Intn(6))
		require.NoError(t, tr.Insert(s, nil))

		got, err := tr.Predict(s[:len(s)-1], 2)
		require.NoError(t, err)
		assert.Greater(t, probs(got)[s[len(s)-1]], 0.0, "sequence %v", s)
	}
}

func TestProperty_MatchedDepthIsMonotonic(t *testing.T) {
	tr := newTestTrie(t, 5)
	s := seq(P, R, R, P, P, R, P)
	require.NoError(t, tr.Insert(s, nil))
	require.NoError(t, tr.Insert(seq(R, R), nil))

	prev := -1
	for i := 0; i <= tr.MaxDepth(); i++ {
		got, err := tr.Predict(s[:i], 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.MatchedDepth, prev)
		assert.Equal(t, i, got.MatchedDepth)
		prev = got.MatchedDepth
	}
}

func TestProperty_ScalingInvariance(t *testing.T) {
	once := newTestTrie(t, 4)
	many := newTestTrie(t, 4)
	training := []models.Sequence{seq(P, P, R), seq(P, R, P), seq(R, R, P, P)}
	for _, s := range training {
		require.NoError(t, once.Insert(s, nil))
		for n := 0; n < 5; n++ {
			require.NoError(t, many.Insert(s, nil))
		}
	}

	for _, ctx := range []models.Sequence{nil, seq(P), seq(P, P), seq(R, R, P), seq(R, P)} {
		a, err := once.Predict(ctx, 2)
		require.NoError(t, err)
		b, err := many.Predict(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, a.MatchedDepth, b.MatchedDepth)
		require.Len(t, b.Ranked, len(a.Ranked))
		for i := range a.Ranked {
			assert.Equal(t, a.Ranked[i].Symbol, b.Ranked[i].Symbol)
			assert.InDelta(t, a.Ranked[i].Probability, b.Ranked[i].Probability, 1e-9)
		}
		assert.Equal(t, a.Support*5, b.Support)
	}
}

func TestWalk_StopPredicates(t *testing.T) {
	n := newNode()
	n.children[P] = newNode()

	assert.True(t, contextExhausted(seq(), 0))
	assert.True(t, contextExhausted(seq(P), 1))
	assert.False(t, contextExhausted(seq(P), 0))

	assert.False(t, missingChild(n, P))
	assert.True(t, missingChild(n, R))
}

func randomSequence(rng *rand.Rand, n int) models.Sequence {
	s := make(models.Sequence, n)
	for i := range s {
		if rng.Intn(100) < 58 {
			s[i] = P
		} else {
			s[i] = R
		}
	}
	return s
}
