// Package history keeps the per-entity counters and trailing windows that
// feed the sampler and the trend display.
package history

import (
	"glicko-ranker/ranker/pool"
)

// side captures what one Record call did to one entity, enough to undo it.
type side struct {
	id      int
	evicted *pool.Battle
}

// Receipt describes one recorded match and the entries it evicted.
type Receipt struct {
	Match pool.Match
	a, b  side
}

type Tracker struct {
	pool *pool.Pool
}

func NewTracker(p *pool.Pool) *Tracker { return &Tracker{pool: p} }

// Record counts the match for both sides and pushes it into each side's
// recent window. The returned receipt reverses it via Revert.
func (t *Tracker) Record(m pool.Match) (Receipt, error) {
	if err := m.Validate(t.pool.Len()); err != nil {
		return Receipt{}, err
	}
	a, b := t.pool.Get(m.A), t.pool.Get(m.B)
	count(&a.History, &b.History, m.Outcome, 1)

	r := Receipt{Match: m, a: side{id: m.A}, b: side{id: m.B}}
	r.a.evicted = push(&a.History, pool.Battle{Opponent: m.B, Result: m.Outcome})
	r.b.evicted = push(&b.History, pool.Battle{Opponent: m.A, Result: m.Outcome.Mirror()})
	return r, nil
}

// Revert undoes a Record. Receipts must be reverted newest first.
func (t *Tracker) Revert(r Receipt) {
	a, b := t.pool.Get(r.Match.A), t.pool.Get(r.Match.B)
	count(&a.History, &b.History, r.Match.Outcome, -1)
	// b was pushed last
	pop(&b.History, r.b.evicted)
	pop(&a.History, r.a.evicted)
}

// RevertAll undoes receipts in reverse order.
func (t *Tracker) RevertAll(rs []Receipt) {
	for i := len(rs) - 1; i >= 0; i-- {
		t.Revert(rs[i])
	}
}

// Snapshot appends every entity's current rating and rank to its trails.
func (t *Tracker) Snapshot(ranks map[int]int) {
	for _, e := range t.pool.Entities() {
		e.History.RatingTrail.Push(e.Rating.Value)
		e.History.RankTrail.Push(ranks[e.ID])
	}
}

func count(a, b *pool.History, o pool.Outcome, d int) {
	switch o {
	case pool.AWin:
		a.Wins += d
		b.Losses += d
	case pool.BWin:
		a.Losses += d
		b.Wins += d
	case pool.Draw:
		a.Draws += d
		b.Draws += d
	case pool.BothLose:
		a.Losses += d
		b.Losses += d
	}
}

func push(h *pool.History, b pool.Battle) *pool.Battle {
	old, evicted := h.Recent.Push(b)
	if !evicted {
		return nil
	}
	return &old
}

func pop(h *pool.History, evicted *pool.Battle) {
	h.Recent.PopNewest()
	if evicted != nil {
		h.Recent.PushOldest(*evicted)
	}
}
