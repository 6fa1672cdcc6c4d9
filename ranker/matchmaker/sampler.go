// Package matchmaker picks the next pair of entities to compare.
//
// Weighting: an entity's weight is its battle-count deficit against the
// most-played entity plus one, so the most-played entities keep weight 1 and
// every extra game missing adds one more unit of weight.
package matchmaker

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"glicko-ranker/ranker/pool"
)

type Sampler struct {
	rng *rand.Rand
}

// New seeds a sampler. A zero seed draws one from crypto/rand.
func New(seed uint64) *Sampler {
	if seed == 0 {
		seed = secureSeed()
	}
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func secureSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return binary.LittleEndian.Uint64(b[:]) | 1
}

// Weight is the sampling weight for a battle-count deficit.
func Weight(deficit int) float64 { return float64(deficit + 1) }

// Weights returns the sampling weight of every entity, indexed by id.
func Weights(p *pool.Pool) []float64 {
	maxB := 0
	for _, e := range p.Entities() {
		maxB = max(maxB, e.History.Battles())
	}
	w := make([]float64, p.Len())
	for i, e := range p.Entities() {
		w[i] = Weight(maxB - e.History.Battles())
	}
	return w
}

// Pick returns two distinct ids. The first is drawn from the weighted
// distribution; the second from the same distribution excluding the first
// and, when anyone else is left, the first's recent opponents.
func (s *Sampler) Pick(p *pool.Pool) (int, int, error) {
	if p.Len() < 2 {
		return 0, 0, eris.Wrapf(pool.ErrPoolTooSmall, "have %d", p.Len())
	}
	w := Weights(p)

	all := make([]int, p.Len())
	for i := range all {
		all[i] = i
	}
	i := s.draw(all, w)

	recent := p.Get(i).History.RecentOpponents()
	eligible := make([]int, 0, len(all)-1)
	fallback := make([]int, 0, len(all)-1)
	for _, j := range all {
		if j == i {
			continue
		}
		fallback = append(fallback, j)
		if _, seen := recent[j]; !seen {
			eligible = append(eligible, j)
		}
	}
	if len(eligible) == 0 {
		eligible = fallback
	}
	return i, s.draw(eligible, w), nil
}

// draw samples one of ids proportionally to w[id]. Restricting the support
// this way is equivalent to redrawing until a candidate is acceptable.
func (s *Sampler) draw(ids []int, w []float64) int {
	total := 0.0
	for _, id := range ids {
		total += w[id]
	}
	x := s.rng.Float64() * total
	for _, id := range ids {
		x -= w[id]
		if x < 0 {
			return id
		}
	}
	return ids[len(ids)-1]
}
