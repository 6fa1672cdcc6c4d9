package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"glicko-ranker/ranker/pool"
)

var ErrCorruptState = eris.New("persisted state is corrupt")

// Persisted shapes. Recent opponents are stored by name so that the ids can
// be renumbered when the seed list changes.

type RatingRecord struct {
	Value      float64 `json:"value"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

type BattleRecord struct {
	Opponent string       `json:"opponent"`
	Result   pool.Outcome `json:"result"`
}

type HistoryRecord struct {
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
	Draws       int            `json:"draws"`
	Recent      []BattleRecord `json:"recent"`
	RatingTrail []float64      `json:"rating_trail"`
	RankTrail   []int          `json:"rank_trail"`
}

type EntityRecord struct {
	ID      int           `json:"id"`
	Name    string        `json:"name"`
	Rating  RatingRecord  `json:"rating"`
	History HistoryRecord `json:"history"`
}

type MatchRecord struct {
	A       string       `json:"a"`
	B       string       `json:"b"`
	Outcome pool.Outcome `json:"outcome"`
}

// SessionRecord is one committed session in the session log.
type SessionRecord struct {
	ID        uuid.UUID     `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Matches   []MatchRecord `json:"matches"`
}

func NewSessionRecord(id uuid.UUID, started, ended time.Time, p *pool.Pool, matches []pool.Match) SessionRecord {
	out := SessionRecord{ID: id, StartedAt: started, EndedAt: ended, Matches: make([]MatchRecord, len(matches))}
	for i, m := range matches {
		out.Matches[i] = MatchRecord{A: p.Name(m.A), B: p.Name(m.B), Outcome: m.Outcome}
	}
	return out
}

func ToRecords(p *pool.Pool) []EntityRecord {
	out := make([]EntityRecord, p.Len())
	for i, e := range p.Entities() {
		recent := make([]BattleRecord, 0, e.History.Recent.Len())
		for _, b := range e.History.Recent.Items() {
			recent = append(recent, BattleRecord{Opponent: p.Name(b.Opponent), Result: b.Result})
		}
		out[i] = EntityRecord{
			ID:   e.ID,
			Name: e.Name,
			Rating: RatingRecord{
				Value:      e.Rating.Value,
				Deviation:  e.Rating.Deviation,
				Volatility: e.Rating.Volatility,
			},
			History: HistoryRecord{
				Wins:        e.History.Wins,
				Losses:      e.History.Losses,
				Draws:       e.History.Draws,
				Recent:      recent,
				RatingTrail: e.History.RatingTrail.Items(),
				RankTrail:   e.History.RankTrail.Items(),
			},
		}
	}
	return out
}

// FromRecords rebuilds a pool. Records must carry dense ids; they may come in
// any order. Recent entries naming unknown opponents are dropped.
func FromRecords(recs []EntityRecord) (*pool.Pool, error) {
	es := make([]*pool.Entity, len(recs))
	for _, r := range recs {
		if r.ID < 0 || r.ID >= len(recs) || es[r.ID] != nil {
			return nil, eris.Wrapf(ErrCorruptState, "bad or repeated id %d", r.ID)
		}
		if r.Rating.Deviation <= 0 || r.Rating.Volatility <= 0 {
			return nil, eris.Wrapf(ErrCorruptState, "%q has non-positive deviation or volatility", r.Name)
		}
		if r.History.Wins < 0 || r.History.Losses < 0 || r.History.Draws < 0 {
			return nil, eris.Wrapf(ErrCorruptState, "%q has negative counters", r.Name)
		}
		e := pool.NewEntity(r.ID, r.Name)
		e.Rating = pool.Rating{Value: r.Rating.Value, Deviation: r.Rating.Deviation, Volatility: r.Rating.Volatility}
		e.History.Wins, e.History.Losses, e.History.Draws = r.History.Wins, r.History.Losses, r.History.Draws
		for _, v := range r.History.RatingTrail {
			e.History.RatingTrail.Push(v)
		}
		for _, v := range r.History.RankTrail {
			e.History.RankTrail.Push(v)
		}
		es[r.ID] = e
	}

	p, err := pool.FromEntities(es)
	if err != nil {
		return nil, eris.Wrap(ErrCorruptState, err.Error())
	}
	for _, r := range recs {
		e := p.Get(r.ID)
		for _, b := range r.History.Recent {
			opp, ok := p.Lookup(b.Opponent)
			if !ok || !b.Result.Valid() {
				continue
			}
			e.History.Recent.Push(pool.Battle{Opponent: opp.ID, Result: b.Result})
		}
	}
	return p, nil
}
