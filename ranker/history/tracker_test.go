package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glicko-ranker/ranker/pool"
)

func newPool(t *testing.T, names ...string) *pool.Pool {
	t.Helper()
	p, err := pool.New(names)
	require.NoError(t, err)
	return p
}

func recordAll(t *testing.T, tr *Tracker, matches []pool.Match) {
	t.Helper()
	for _, m := range matches {
		_, err := tr.Record(m)
		require.NoError(t, err)
	}
}

// historyOf copies the history of every entity, indexed by id.
func historyOf(p *pool.Pool) []pool.History {
	out := make([]pool.History, p.Len())
	for i, e := range p.Entities() {
		out[i] = e.Clone().History
	}
	return out
}

func TestRecordCountsOutcomes(t *testing.T) {
	p := newPool(t, "a", "b", "c")
	tr := NewTracker(p)

	recordAll(t, tr, []pool.Match{
		{A: 0, B: 1, Outcome: pool.AWin},
		{A: 1, B: 2, Outcome: pool.BWin},
		{A: 0, B: 2, Outcome: pool.Draw},
		{A: 1, B: 0, Outcome: pool.BothLose},
	})

	a, b, c := p.Get(0).History, p.Get(1).History, p.Get(2).History
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{a.Wins, a.Losses, a.Draws})
	assert.Equal(t, [3]int{0, 3, 0}, [3]int{b.Wins, b.Losses, b.Draws})
	assert.Equal(t, [3]int{1, 0, 1}, [3]int{c.Wins, c.Losses, c.Draws})

	assert.Equal(t, []pool.Battle{
		{Opponent: 1, Result: pool.AWin},
		{Opponent: 2, Result: pool.Draw},
		{Opponent: 1, Result: pool.BothLose},
	}, a.Recent.Items())
	assert.Equal(t, []pool.Battle{
		{Opponent: 0, Result: pool.BWin},
		{Opponent: 2, Result: pool.BWin},
		{Opponent: 0, Result: pool.BothLose},
	}, b.Recent.Items())
}

func TestRecordAddsTwoBattlesPerMatch(t *testing.T) {
	p := newPool(t, "a", "b", "c", "d")
	before := p.TotalBattles()
	batch := []pool.Match{
		{A: 0, B: 1, Outcome: pool.AWin},
		{A: 2, B: 3, Outcome: pool.Draw},
		{A: 3, B: 0, Outcome: pool.BothLose},
	}
	recordAll(t, NewTracker(p), batch)
	assert.Equal(t, before+2*len(batch), p.TotalBattles())
}

func TestRecentWindowIsBounded(t *testing.T) {
	p := newPool(t, "a", "b")
	tr := NewTracker(p)
	for i := 0; i < pool.HistoryCap+3; i++ {
		_, err := tr.Record(pool.Match{A: 0, B: 1, Outcome: pool.AWin})
		require.NoError(t, err)
	}
	assert.Equal(t, pool.HistoryCap, p.Get(0).History.Recent.Len())
	assert.Equal(t, pool.HistoryCap+3, p.Get(0).History.Wins)
}

func TestRevertRestoresEvictedEntries(t *testing.T) {
	p := newPool(t, "a", "b", "c")
	tr := NewTracker(p)
	for i := 0; i < pool.HistoryCap; i++ {
		_, err := tr.Record(pool.Match{A: 0, B: 1 + i%2, Outcome: pool.Draw})
		require.NoError(t, err)
	}
	before := historyOf(p)

	r, err := tr.Record(pool.Match{A: 2, B: 0, Outcome: pool.AWin})
	require.NoError(t, err)
	tr.Revert(r)

	for i := 0; i < p.Len(); i++ {
		want, got := before[i], p.Get(i).History
		assert.Equal(t, want.Recent.Items(), got.Recent.Items(), "entity %d", i)
		assert.Equal(t, want.Wins, got.Wins)
		assert.Equal(t, want.Losses, got.Losses)
		assert.Equal(t, want.Draws, got.Draws)
	}
}

func TestRecordRejectsInvalidMatch(t *testing.T) {
	p := newPool(t, "a", "b")
	tr := NewTracker(p)
	recordAll(t, tr, []pool.Match{{A: 0, B: 1, Outcome: pool.AWin}})

	_, err := tr.Record(pool.Match{A: 0, B: 9, Outcome: pool.AWin})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pool.ErrInvalidMatch))
	assert.Equal(t, 2, p.TotalBattles())
	assert.Equal(t, 1, p.Get(0).History.Recent.Len())
}

func TestSnapshotAppendsTrails(t *testing.T) {
	p := newPool(t, "a", "b")
	tr := NewTracker(p)
	for i := 0; i < pool.HistoryCap+1; i++ {
		p.Get(0).Rating.Value = 1500 + float64(i)
		tr.Snapshot(map[int]int{0: 1, 1: 2})
	}
	assert.Equal(t, []float64{1501, 1502, 1503, 1504, 1505}, p.Get(0).History.RatingTrail.Items())
	assert.Equal(t, []int{2, 2, 2, 2, 2}, p.Get(1).History.RankTrail.Items())
}
