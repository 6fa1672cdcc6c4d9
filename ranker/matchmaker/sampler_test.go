package matchmaker

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glicko-ranker/ranker/pool"
)

func newSeeded(r *rand.Rand) *Sampler { return &Sampler{rng: r} }

func newPool(t *testing.T, n int) *pool.Pool {
	t.Helper()
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	p, err := pool.New(names)
	require.NoError(t, err)
	return p
}

func TestWeightsFavourUnderPlayed(t *testing.T) {
	p := newPool(t, 3)
	p.Get(0).History.Wins = 4
	p.Get(1).History.Losses = 1
	p.Get(1).History.Draws = 1

	w := Weights(p)
	assert.Equal(t, []float64{1, 3, 5}, w)
	for _, x := range w {
		assert.Greater(t, x, 0.0)
	}
}

func TestPickNeverReturnsSamePair(t *testing.T) {
	p := newPool(t, 5)
	s := newSeeded(rand.New(rand.NewPCG(1, 2)))
	for n := 0; n < 2000; n++ {
		i, j, err := s.Pick(p)
		require.NoError(t, err)
		require.NotEqual(t, i, j)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, j, p.Len())
	}
}

func TestPickAvoidsRecentOpponents(t *testing.T) {
	p := newPool(t, 4)
	for id := 0; id < p.Len(); id++ {
		// everyone has recently met everyone except (id+2)%4
		for k := 1; k <= 3; k++ {
			opp := (id + k) % 4
			if opp == (id+2)%4 {
				continue
			}
			p.Get(id).History.Recent.Push(pool.Battle{Opponent: opp, Result: pool.Draw})
		}
	}

	s := newSeeded(rand.New(rand.NewPCG(7, 7)))
	for n := 0; n < 2000; n++ {
		i, j, err := s.Pick(p)
		require.NoError(t, err)
		assert.Equal(t, (i+2)%4, j)
	}
}

func TestPickFallsBackWhenEveryoneIsRecent(t *testing.T) {
	p := newPool(t, 3)
	for id := 0; id < 3; id++ {
		for opp := 0; opp < 3; opp++ {
			if opp != id {
				p.Get(id).History.Recent.Push(pool.Battle{Opponent: opp, Result: pool.AWin})
			}
		}
	}
	s := newSeeded(rand.New(rand.NewPCG(3, 4)))
	for n := 0; n < 500; n++ {
		i, j, err := s.Pick(p)
		require.NoError(t, err)
		assert.NotEqual(t, i, j)
	}
}

func TestPickDistributionFollowsDeficit(t *testing.T) {
	p := newPool(t, 3)
	p.Get(0).History.Wins = 10

	s := newSeeded(rand.New(rand.NewPCG(11, 13)))
	first := make([]int, 3)
	for n := 0; n < 20000; n++ {
		i, _, err := s.Pick(p)
		require.NoError(t, err)
		first[i]++
	}
	// weights 1, 11, 11
	assert.InDelta(t, 20000.0/23, float64(first[0]), 250)
	assert.Greater(t, first[1], first[0]*5)
	assert.Greater(t, first[2], first[0]*5)
}

func TestPickRejectsTinyPool(t *testing.T) {
	_, _, err := New(5).Pick(newPool(t, 1))
	assert.True(t, errors.Is(err, pool.ErrPoolTooSmall))
}

func TestNewWithZeroSeedIsUsable(t *testing.T) {
	i, j, err := New(0).Pick(newPool(t, 2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, []int{i, j})
}
