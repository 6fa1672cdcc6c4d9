package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glicko-ranker/ranker/pool"
)

func TestRankSharesTiesAndCountsDistinctRatings(t *testing.T) {
	p := newPool(t,
		pool.Rating{Value: 1600, Deviation: 100, Volatility: 0.06}, // 0
		pool.Rating{Value: 1500, Deviation: 200, Volatility: 0.06}, // 1
		pool.Rating{Value: 1600, Deviation: 120, Volatility: 0.06}, // 2
		pool.Rating{Value: 1500, Deviation: 200, Volatility: 0.06}, // 3
		pool.Rating{Value: 1400, Deviation: 50, Volatility: 0.06},  // 4
	)

	list, ranks := Rank(p)
	require.Len(t, list, 5)

	ids := make([]int, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	// rating desc, deviation desc, id desc
	assert.Equal(t, []int{2, 0, 3, 1, 4}, ids)

	assert.Equal(t, map[int]int{0: 1, 2: 1, 1: 2, 3: 2, 4: 3}, ranks)

	maxRank := 0
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}
	assert.Equal(t, 3, maxRank)
}

func TestRankDoesNotReorderPool(t *testing.T) {
	p := newPool(t,
		pool.Rating{Value: 1400, Deviation: 100, Volatility: 0.06},
		pool.Rating{Value: 1700, Deviation: 100, Volatility: 0.06},
	)
	list, ranks := Rank(p)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 0, p.Entities()[0].ID)
	assert.Equal(t, 2, ranks[0])
	assert.Equal(t, 1, ranks[1])
}

func TestRankEmptyPool(t *testing.T) {
	p, err := pool.New(nil)
	require.NoError(t, err)
	list, ranks := Rank(p)
	assert.Empty(t, list)
	assert.Empty(t, ranks)
}
