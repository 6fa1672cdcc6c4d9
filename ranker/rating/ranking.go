package rating

import (
	"sort"

	"glicko-ranker/ranker/pool"
)

// Rank orders the pool by rating (desc), then deviation (desc), then id
// (desc). The last two keys are an arbitrary but stable tie-break.
//
// Ranks are standings-style: equal ratings share a rank and the next lower
// rating gets the following number, regardless of how many entities tied.
func Rank(p *pool.Pool) ([]*pool.Entity, map[int]int) {
	list := make([]*pool.Entity, p.Len())
	copy(list, p.Entities())
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Rating.Value != b.Rating.Value {
			return a.Rating.Value > b.Rating.Value
		}
		if a.Rating.Deviation != b.Rating.Deviation {
			return a.Rating.Deviation > b.Rating.Deviation
		}
		return a.ID > b.ID
	})

	ranks := make(map[int]int, len(list))
	if len(list) == 0 {
		return list, ranks
	}
	rank := 1
	maxRating := list[0].Rating.Value
	for _, e := range list {
		if e.Rating.Value < maxRating {
			rank++
			maxRating = e.Rating.Value
		}
		ranks[e.ID] = rank
	}
	return list, ranks
}
