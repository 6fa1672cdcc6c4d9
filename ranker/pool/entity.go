package pool

import "github.com/rotisserie/eris"

// Starting values for a fresh entity (Glicko-2 paper defaults).
const (
	DefaultRating     = 1500.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06
)

var ErrInvalidMatch = eris.New("invalid match")

type Outcome string

const (
	AWin     Outcome = "AWin"
	BWin     Outcome = "BWin"
	Draw     Outcome = "Draw"
	BothLose Outcome = "BothLose"
)

func (o Outcome) Valid() bool {
	switch o {
	case AWin, BWin, Draw, BothLose:
		return true
	}
	return false
}

// Scores maps an outcome to the per-side Glicko scores. BothLose scores both
// sides as a loss, unlike Draw.
func (o Outcome) Scores() (a, b float64) {
	switch o {
	case AWin:
		return 1, 0
	case BWin:
		return 0, 1
	case Draw:
		return 0.5, 0.5
	default:
		return 0, 0
	}
}

// Mirror returns the same outcome seen from the B side.
func (o Outcome) Mirror() Outcome {
	switch o {
	case AWin:
		return BWin
	case BWin:
		return AWin
	}
	return o
}

// Rating holds the public 1500-scale values.
type Rating struct {
	Value      float64
	Deviation  float64
	Volatility float64
}

func NewRating() Rating {
	return Rating{Value: DefaultRating, Deviation: DefaultDeviation, Volatility: DefaultVolatility}
}

// Battle is one entry of an entity's recent window. Result is seen from the
// owning entity's side, i.e. AWin means the owner won.
type Battle struct {
	Opponent int
	Result   Outcome
}

type History struct {
	Wins   int
	Losses int
	Draws  int

	Recent      Ring[Battle]
	RatingTrail Ring[float64]
	RankTrail   Ring[int]
}

func NewHistory() History {
	return History{
		Recent:      NewRing[Battle](HistoryCap),
		RatingTrail: NewRing[float64](HistoryCap),
		RankTrail:   NewRing[int](HistoryCap),
	}
}

func (h *History) Battles() int { return h.Wins + h.Losses + h.Draws }

// RecentOpponents returns the ids in the recent window as a set.
func (h *History) RecentOpponents() map[int]struct{} {
	out := make(map[int]struct{}, h.Recent.Len())
	for i := 0; i < h.Recent.Len(); i++ {
		out[h.Recent.At(i).Opponent] = struct{}{}
	}
	return out
}

type Entity struct {
	ID      int
	Name    string
	Rating  Rating
	History History
}

func NewEntity(id int, name string) *Entity {
	return &Entity{ID: id, Name: name, Rating: NewRating(), History: NewHistory()}
}

// Clone deep-copies the entity, including its ring buffers.
func (e *Entity) Clone() *Entity {
	cp := *e
	cp.History.Recent = e.History.Recent.Clone()
	cp.History.RatingTrail = e.History.RatingTrail.Clone()
	cp.History.RankTrail = e.History.RankTrail.Clone()
	return &cp
}

// Match is one judged pairing inside a session batch.
type Match struct {
	A       int
	B       int
	Outcome Outcome
}

// Validate checks the match against a pool of size n.
func (m Match) Validate(n int) error {
	if m.A < 0 || m.A >= n || m.B < 0 || m.B >= n {
		return eris.Wrapf(ErrInvalidMatch, "ids (%d, %d) out of range for pool of %d", m.A, m.B, n)
	}
	if m.A == m.B {
		return eris.Wrapf(ErrInvalidMatch, "entity %d matched against itself", m.A)
	}
	if !m.Outcome.Valid() {
		return eris.Wrapf(ErrInvalidMatch, "unknown outcome %q", m.Outcome)
	}
	return nil
}
