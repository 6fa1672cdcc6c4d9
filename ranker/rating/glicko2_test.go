package rating

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glicko-ranker/ranker/pool"
)

func newPool(t *testing.T, ratings ...pool.Rating) *pool.Pool {
	t.Helper()
	names := make([]string, len(ratings))
	for i := range ratings {
		names[i] = string(rune('A' + i))
	}
	p, err := pool.New(names)
	require.NoError(t, err)
	for i, r := range ratings {
		p.Get(i).Rating = r
	}
	return p
}

func fresh() pool.Rating { return pool.NewRating() }

func TestApplySingleWin(t *testing.T) {
	p := newPool(t, fresh(), fresh())
	require.NoError(t, NewEngine().Apply(p, []pool.Match{{A: 0, B: 1, Outcome: pool.AWin}}))

	a, b := p.Get(0).Rating, p.Get(1).Rating
	assert.Greater(t, a.Value, 1500.0)
	assert.Less(t, b.Value, 1500.0)
	assert.Less(t, a.Deviation, 350.0)
	assert.Less(t, b.Deviation, 350.0)
	assert.Greater(t, a.Deviation, 0.0)
	assert.Greater(t, b.Deviation, 0.0)
	assert.Greater(t, a.Volatility, 0.0)
	assert.InDelta(t, a.Value-1500, 1500-b.Value, 1e-9)

	list, ranks := Rank(p)
	assert.Equal(t, 0, list[0].ID)
	assert.Equal(t, 1, ranks[0])
	assert.Equal(t, 2, ranks[1])
}

// Worked example from Glickman's Glicko-2 paper.
func TestApplyPaperExample(t *testing.T) {
	p := newPool(t,
		pool.Rating{Value: 1500, Deviation: 200, Volatility: 0.06},
		pool.Rating{Value: 1400, Deviation: 30, Volatility: 0.06},
		pool.Rating{Value: 1550, Deviation: 100, Volatility: 0.06},
		pool.Rating{Value: 1700, Deviation: 300, Volatility: 0.06},
	)
	matches := []pool.Match{
		{A: 0, B: 1, Outcome: pool.AWin},
		{A: 0, B: 2, Outcome: pool.BWin},
		{A: 3, B: 0, Outcome: pool.AWin},
	}
	require.NoError(t, NewEngine().Apply(p, matches))

	r := p.Get(0).Rating
	assert.InDelta(t, 1464.06, r.Value, 0.1)
	assert.InDelta(t, 151.52, r.Deviation, 0.1)
	assert.InDelta(t, 0.05999, r.Volatility, 1e-5)
}

func TestApplyMirroredBatchIsSymmetric(t *testing.T) {
	start := []pool.Rating{
		{Value: 1620, Deviation: 80, Volatility: 0.06},
		{Value: 1480, Deviation: 210, Volatility: 0.07},
		{Value: 1505, Deviation: 150, Volatility: 0.05},
	}
	batch := []pool.Match{
		{A: 0, B: 1, Outcome: pool.AWin},
		{A: 1, B: 2, Outcome: pool.Draw},
		{A: 0, B: 2, Outcome: pool.BWin},
		{A: 2, B: 1, Outcome: pool.BothLose},
	}
	mirrored := make([]pool.Match, len(batch))
	for i, m := range batch {
		mirrored[i] = pool.Match{A: m.B, B: m.A, Outcome: m.Outcome.Mirror()}
	}

	p1 := newPool(t, start...)
	p2 := newPool(t, start...)
	require.NoError(t, NewEngine().Apply(p1, batch))
	require.NoError(t, NewEngine().Apply(p2, mirrored))

	for i := range start {
		r1, r2 := p1.Get(i).Rating, p2.Get(i).Rating
		assert.InDelta(t, r1.Value, r2.Value, 1e-9, "entity %d rating", i)
		assert.InDelta(t, r1.Deviation, r2.Deviation, 1e-9, "entity %d deviation", i)
		assert.InDelta(t, r1.Volatility, r2.Volatility, 1e-12, "entity %d volatility", i)
	}
}

func TestBothLoseIsWorseThanDraw(t *testing.T) {
	draw := newPool(t, fresh(), fresh())
	both := newPool(t, fresh(), fresh())
	require.NoError(t, NewEngine().Apply(draw, []pool.Match{{A: 0, B: 1, Outcome: pool.Draw}}))
	require.NoError(t, NewEngine().Apply(both, []pool.Match{{A: 0, B: 1, Outcome: pool.BothLose}}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, 1500.0, draw.Get(i).Rating.Value)
		assert.Less(t, both.Get(i).Rating.Value, draw.Get(i).Rating.Value)
	}
}

func TestInactiveEntitiesOnlyAge(t *testing.T) {
	p := newPool(t, fresh(), fresh(), fresh())
	require.NoError(t, NewEngine().Apply(p, []pool.Match{{A: 0, B: 1, Outcome: pool.Draw}}))

	idle := p.Get(2).Rating
	assert.Equal(t, 1500.0, idle.Value)
	assert.Equal(t, pool.DefaultVolatility, idle.Volatility)
	assert.Greater(t, idle.Deviation, 350.0)
	assert.InDelta(t, 350.155, idle.Deviation, 1e-3)
}

func TestApplyEmptyBatchIsNoop(t *testing.T) {
	p := newPool(t, fresh(), fresh())
	require.NoError(t, NewEngine().Apply(p, nil))
	assert.Equal(t, fresh(), p.Get(0).Rating)
	assert.Equal(t, fresh(), p.Get(1).Rating)
}

func TestApplyIsDeterministic(t *testing.T) {
	batch := []pool.Match{{A: 0, B: 1, Outcome: pool.BWin}, {A: 1, B: 2, Outcome: pool.AWin}}
	p1 := newPool(t, fresh(), fresh(), fresh())
	p2 := newPool(t, fresh(), fresh(), fresh())
	require.NoError(t, NewEngine().Apply(p1, batch))
	require.NoError(t, NewEngine().Apply(p2, batch))
	for i := 0; i < 3; i++ {
		assert.Equal(t, p1.Get(i).Rating, p2.Get(i).Rating)
	}
}

func TestApplyRejectsInvalidMatch(t *testing.T) {
	p := newPool(t, fresh(), fresh())
	err := NewEngine().Apply(p, []pool.Match{{A: 0, B: 0, Outcome: pool.AWin}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pool.ErrInvalidMatch))
	assert.Equal(t, fresh(), p.Get(0).Rating)
}

func TestApplyReportsNonConvergence(t *testing.T) {
	p := newPool(t, fresh(), fresh())
	eng := NewEngine()
	eng.MaxIter = 1

	err := eng.Apply(p, []pool.Match{{A: 0, B: 1, Outcome: pool.AWin}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonConvergence))

	var nce *NonConvergenceError
	require.True(t, errors.As(err, &nce))
	assert.Equal(t, 0, nce.EntityID)

	// nothing is written when any participant fails
	assert.Equal(t, fresh(), p.Get(0).Rating)
	assert.Equal(t, fresh(), p.Get(1).Rating)
}

func TestVolatilityStaysNearPriorForExpectedResult(t *testing.T) {
	eng := NewEngine()
	sigma, iters, err := eng.volatility(10, 0, 0.06, 1.2)
	require.NoError(t, err)
	assert.Greater(t, iters, 0)
	assert.Greater(t, sigma, 0.0)
	assert.Less(t, sigma, 0.06)
}
