package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/situation"
)

const (
	P = models.Pass
	R = models.Run
)

func thirdShort(diff float64) models.SituationFeatures {
	return models.SituationFeatures{
		Down:              3,
		YardsToGo:         2,
		YardlineFromGoal:  50,
		ScoreDifferential: models.Float(diff),
	}
}

func newTestRegistry(t *testing.T, minExamples int, ext situation.Extensions) *Registry {
	t.Helper()
	p := DefaultPolicy()
	p.MinExamples = minExamples
	p.Extensions = ext
	r, err := New(p)
	require.NoError(t, err)
	return r
}

func TestNew_PolicyErrors(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Policy)
		field string
	}{
		{"zero depth", func(p *Policy) { p.MaxDepth = 0 }, "max_depth"},
		{"negative threshold", func(p *Policy) { p.MinExamples = -1 }, "min_examples"},
		{"default does not sum to one", func(p *Policy) { p.Default = map[models.Symbol]float64{P: 0.5, R: 0.4} }, "default"},
		{"default outside alphabet", func(p *Policy) { p.Default = map[models.Symbol]float64{"X": 1} }, "default"},
		{"no alphabet", func(p *Policy) { p.Alphabet = nil }, "alphabet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.tweak(&p)
			_, err := New(p)
			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	p := DefaultPolicy()
	p.Default = nil
	_, err := New(p)
	var emptyErr *models.EmptyModelError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestPredict_DefaultWhenUntrained(t *testing.T) {
	r := newTestRegistry(t, 5, situation.Extensions{})

	res, err := r.Predict(thirdShort(0), models.Sequence{P}, 2)
	require.NoError(t, err)
	assert.Equal(t, LevelDefault, res.Level)
	assert.Equal(t, 0, res.MatchedDepth)
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, P, res.Ranked[0].Symbol)
	assert.InDelta(t, 0.58, res.Ranked[0].Probability, 1e-9)

	res, err = r.Predict(thirdShort(0), nil, 1)
	require.NoError(t, err)
	require.Len(t, res.Ranked, 1)
	assert.InDelta(t, 1.0, res.Ranked[0].Probability, 1e-9)
}

func TestPredict_FallsBackToBase(t *testing.T) {
	r := newTestRegistry(t, 3, situation.Extensions{Score: true})

	require.NoError(t, r.Insert(thirdShort(-10), models.Sequence{P, R}, nil))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Insert(thirdShort(10), models.Sequence{R, R}, nil))
	}

	res, err := r.Predict(thirdShort(-10), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, LevelBase, res.Level)
	assert.Equal(t, situation.Key{Group: situation.ThirdShort, Score: situation.Trailing}, res.SpecificKey)
	assert.Equal(t, situation.Key{Group: situation.ThirdShort}, res.BaseKey)

	direct, ok, err := r.PredictKey(res.BaseKey, nil, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, direct.Ranked, res.Ranked)
	assert.Equal(t, direct.MatchedDepth, res.MatchedDepth)
	assert.InDelta(t, 0.75, res.Ranked[0].Probability, 1e-9)
	assert.Equal(t, R, res.Ranked[0].Symbol)
}

func TestPredict_SpecificWhenSufficient(t *testing.T) {
	r := newTestRegistry(t, 2, situation.Extensions{Score: true})
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Insert(thirdShort(10), models.Sequence{P, P, R}, nil))
	}

	res, err := r.Predict(thirdShort(12), models.Sequence{P}, 2)
	require.NoError(t, err)
	assert.Equal(t, LevelSpecific, res.Level)
	assert.Equal(t, 1, res.MatchedDepth)
	require.Len(t, res.Ranked, 1)
	assert.Equal(t, P, res.Ranked[0].Symbol)

	counts := r.FallbackCounts()
	assert.Equal(t, int64(1), counts[LevelSpecific])
	assert.Equal(t, int64(0), counts[LevelDefault])
}

func TestPredict_ThinSubPathIsInsufficient(t *testing.T) {
	r := newTestRegistry(t, 3, situation.Extensions{})
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Insert(thirdShort(0), models.Sequence{R, R}, nil))
	}
	require.NoError(t, r.Insert(thirdShort(0), models.Sequence{P, P}, nil))

	// The root has six visits but the node after P has only one.
	res, err := r.Predict(thirdShort(0), models.Sequence{P}, 2)
	require.NoError(t, err)
	assert.Equal(t, LevelDefault, res.Level)

	res, err = r.Predict(thirdShort(0), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, LevelSpecific, res.Level)
}

func TestInsert_WithoutExtensionsStoresOnce(t *testing.T) {
	r := newTestRegistry(t, 0, situation.Extensions{})
	require.NoError(t, r.Insert(thirdShort(0), models.Sequence{P}, nil))

	assert.Equal(t, 1, r.Len())
	st := r.Stats()
	require.Len(t, st.Tries, 1)
	assert.Equal(t, int64(1), st.Tries[0].Examples)
	assert.Equal(t, int64(1), st.Tries[0].RootVisits)
}

func TestInsert_InvalidSymbolCreatesNothing(t *testing.T) {
	r := newTestRegistry(t, 0, situation.Extensions{Score: true})
	err := r.Insert(thirdShort(0), models.Sequence{P, "K"}, nil)

	var symErr *models.InvalidSymbolError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, 0, r.Len())

	_, err = r.Predict(thirdShort(0), models.Sequence{"K"}, 1)
	assert.ErrorAs(t, err, &symErr)
}

func TestInsertDrive_TrainsEveryWindow(t *testing.T) {
	p := DefaultPolicy()
	p.MaxDepth = 3
	p.MinExamples = 1
	r, err := New(p)
	require.NoError(t, err)

	drive := &models.Drive{GameID: "g1", DriveID: "1"}
	for i, pt := range []string{"pass", "run", "pass", "pass"} {
		drive.Plays = append(drive.Plays, models.PlayRecord{
			GameID: "g1", DriveID: "1", PlayIndex: i, PlayType: pt,
			Down: 1, YardsToGo: 10, YardlineFromGoal: 75,
		})
	}

	n, err := r.InsertDrive(drive)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	key := situation.Key{Group: situation.EarlyDownLong}
	// Windows: [P] [P R] [P R P] [R P P]; the context after R P is P.
	got, ok, err := r.PredictKey(key, r.ContextFor(models.Sequence{P, R, P}), 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.MatchedDepth)
	assert.Equal(t, P, got.Ranked[0].Symbol)
	assert.Equal(t, models.Sequence{R, P}, r.ContextFor(models.Sequence{P, R, P}))
}

func TestInsertDrive_RejectsUnknownPlayType(t *testing.T) {
	r := newTestRegistry(t, 0, situation.Extensions{})
	drive := &models.Drive{Plays: []models.PlayRecord{{PlayType: "pass"}, {PlayType: "punt"}}}

	_, err := r.InsertDrive(drive)
	var symErr *models.InvalidSymbolError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, 1, symErr.Position)
	assert.Equal(t, 0, r.Len())
}

func TestSnapshot_RoundTripPreservesPredictions(t *testing.T) {
	r := newTestRegistry(t, 2, situation.Extensions{Score: true, Venue: true})
	inputs := []struct {
		diff float64
		seq  models.Sequence
	}{
		{-10, models.Sequence{P, P, R}},
		{-10, models.Sequence{P, R, P}},
		{0, models.Sequence{R, R, P, P}},
		{14, models.Sequence{R, P}},
		{14, models.Sequence{R, P, R}},
	}
	for _, in := range inputs {
		require.NoError(t, r.Insert(thirdShort(in.diff), in.seq, []float64{0.1, -0.3, 0.2, 0.0}[:len(in.seq)]))
	}

	data, err := MarshalSnapshot(r.Snapshot())
	require.NoError(t, err)
	restored, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, r.Keys(), restored.Keys())
	assert.Equal(t, r.Policy().Extensions, restored.Policy().Extensions)
	assert.Equal(t, "PASS", restored.Policy().Alphabet.Label(P))

	for _, diff := range []float64{-10, 0, 14, 3} {
		for _, ctx := range []models.Sequence{nil, {P}, {R}, {P, P}, {R, P}, {P, R, P}} {
			want, err := r.Predict(thirdShort(diff), ctx, 2)
			require.NoError(t, err)
			got, err := restored.Predict(thirdShort(diff), ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, want, got, "diff %v ctx %v", diff, ctx)
		}
	}

	again, err := MarshalSnapshot(restored.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestSnapshot_RejectsBadInput(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte(`{"version":99}`))
	assert.Error(t, err)

	_, err = UnmarshalSnapshot([]byte(`not json`))
	assert.Error(t, err)

	r := newTestRegistry(t, 0, situation.Extensions{})
	require.NoError(t, r.Insert(thirdShort(0), models.Sequence{P}, nil))
	snap := r.Snapshot()
	snap.Situations[0].Trie.MaxDepth = 3
	_, err = FromSnapshot(snap)
	assert.Error(t, err)
}

func TestRegistry_ConcurrentInsertAndPredict(t *testing.T) {
	r := newTestRegistry(t, 1, situation.Extensions{Score: true})
	diffs := []float64{-14, 0, 14}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				f := thirdShort(diffs[(w+i)%len(diffs)])
				if i%2 == 0 {
					assert.NoError(t, r.Insert(f, models.Sequence{P, R, P}, nil))
				} else {
					_, err := r.Predict(f, models.Sequence{P}, 2)
					assert.NoError(t, err)
				}
			}
		}(w)
	}
	wg.Wait()

	st := r.Stats()
	assert.Equal(t, 4, len(st.Tries))
	// Every insert lands in one specific trie and the shared base trie.
	assert.Equal(t, int64(8*100*2), st.TotalExamples)
	var total int64
	for _, c := range r.FallbackCounts() {
		total += c
	}
	assert.Equal(t, int64(8*100), total)
}
