// Package session drives one rating period: pick a pair, ask for a judgment,
// record it, repeat, then commit the whole batch at once.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/history"
	"glicko-ranker/ranker/pool"
	"glicko-ranker/ranker/rating"
)

var (
	ErrPoolTooSmall  = pool.ErrPoolTooSmall
	ErrNothingToUndo = eris.New("no match recorded in this session")
	ErrNotEnded      = eris.New("session has not ended")
	ErrCommitted     = eris.New("session already committed")
)

// Signal is what the judge answers for a presented pair.
type Signal int

const (
	LeftWins Signal = iota
	RightWins
	Draw
	BothDisliked
	Undo
	Help
	End
)

func (s Signal) String() string {
	switch s {
	case LeftWins:
		return "left"
	case RightWins:
		return "right"
	case Draw:
		return "draw"
	case BothDisliked:
		return "dislike-both"
	case Undo:
		return "undo"
	case Help:
		return "help"
	case End:
		return "end"
	}
	return "unknown"
}

// Outcome maps a judgment to a match outcome; ok is false for control signals.
func (s Signal) Outcome() (pool.Outcome, bool) {
	switch s {
	case LeftWins:
		return pool.AWin, true
	case RightWins:
		return pool.BWin, true
	case Draw:
		return pool.Draw, true
	case BothDisliked:
		return pool.BothLose, true
	}
	return "", false
}

// Judge is the human on the other side. Ask blocks until an answer arrives.
type Judge interface {
	Ask(ctx context.Context, round int, left, right string) (Signal, error)
}

// Reporter receives the session's user-visible events.
type Reporter interface {
	Help()
	Chose(s Signal, left, right string)
	Undone(m pool.Match, ok bool)
	Ended(matches int)
}

// PairPicker chooses the next pair of ids.
type PairPicker interface {
	Pick(p *pool.Pool) (int, int, error)
}

type State int

const (
	Selecting State = iota
	AwaitingJudgment
	Recording
	Undoing
	Ended
)

func (s State) String() string {
	return [...]string{"selecting", "awaiting-judgment", "recording", "undoing", "ended"}[s]
}

type Options struct {
	Pool     *pool.Pool
	Picker   PairPicker
	Judge    Judge
	Reporter Reporter
	Engine   rating.Engine
	Logger   zerolog.Logger
}

type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	EndedAt   time.Time

	pool     *pool.Pool
	tracker  *history.Tracker
	engine   rating.Engine
	picker   PairPicker
	judge    Judge
	report   Reporter
	log      zerolog.Logger
	state    State
	left     int
	right    int
	pending  Signal
	batch    []pool.Match
	receipts []history.Receipt
	done     bool
}

// Result is what a committed session leaves behind.
type Result struct {
	Matches []pool.Match
	Ranked  []*pool.Entity
	Ranks   map[int]int
}

func New(opts Options) (*Session, error) {
	if opts.Pool == nil || opts.Pool.Len() < 2 {
		n := 0
		if opts.Pool != nil {
			n = opts.Pool.Len()
		}
		return nil, eris.Wrapf(ErrPoolTooSmall, "have %d", n)
	}
	id := uuid.New()
	return &Session{
		ID:        id,
		StartedAt: time.Now(),
		pool:      opts.Pool,
		tracker:   history.NewTracker(opts.Pool),
		engine:    opts.Engine,
		picker:    opts.Picker,
		judge:     opts.Judge,
		report:    opts.Reporter,
		log:       opts.Logger.With().Str("component", "session").Str("session_id", id.String()).Logger(),
		state:     Selecting,
	}, nil
}

func (s *Session) State() State { return s.state }

// Batch returns a copy of the matches recorded so far.
func (s *Session) Batch() []pool.Match {
	out := make([]pool.Match, len(s.batch))
	copy(out, s.batch)
	return out
}

// Run loops until the judge ends the session. Counters and recent windows are
// updated as each match is recorded so the sampler sees them immediately;
// ratings are untouched until Commit. On error every recorded match is rolled
// back.
func (s *Session) Run(ctx context.Context) error {
	for {
		switch s.state {
		case Selecting:
			i, j, err := s.picker.Pick(s.pool)
			if err != nil {
				s.Abandon()
				return eris.Wrap(err, "failed to pick a pair")
			}
			s.left, s.right = i, j
			s.state = AwaitingJudgment

		case AwaitingJudgment:
			left, right := s.pool.Name(s.left), s.pool.Name(s.right)
			sig, err := s.judge.Ask(ctx, len(s.batch)+1, left, right)
			if err != nil {
				s.Abandon()
				return eris.Wrap(err, "judgment failed")
			}
			s.log.Debug().Str("left", left).Str("right", right).Stringer("signal", sig).Msg("judged")
			switch sig {
			case LeftWins, RightWins, Draw, BothDisliked:
				s.pending = sig
				s.state = Recording
			case Undo:
				s.state = Undoing
			case Help:
				s.report.Help()
			default:
				s.state = Ended
			}

		case Recording:
			outcome, _ := s.pending.Outcome()
			m := pool.Match{A: s.left, B: s.right, Outcome: outcome}
			r, err := s.tracker.Record(m)
			if err != nil {
				s.Abandon()
				return err
			}
			s.batch = append(s.batch, m)
			s.receipts = append(s.receipts, r)
			s.report.Chose(s.pending, s.pool.Name(s.left), s.pool.Name(s.right))
			s.state = Selecting

		case Undoing:
			m, err := s.Undo()
			if err != nil {
				s.report.Undone(pool.Match{}, false)
				s.state = AwaitingJudgment
				continue
			}
			s.report.Undone(m, true)
			s.state = Selecting

		case Ended:
			s.EndedAt = time.Now()
			s.report.Ended(len(s.batch))
			s.log.Info().Int("matches", len(s.batch)).Msg("session ended")
			return nil
		}
	}
}

// Undo pops the last recorded match and reverses its history updates.
func (s *Session) Undo() (pool.Match, error) {
	if len(s.batch) == 0 {
		return pool.Match{}, ErrNothingToUndo
	}
	last := len(s.batch) - 1
	m := s.batch[last]
	s.tracker.Revert(s.receipts[last])
	s.batch = s.batch[:last]
	s.receipts = s.receipts[:last]
	return m, nil
}

// Abandon reverses every history update made by this session.
func (s *Session) Abandon() {
	s.tracker.RevertAll(s.receipts)
	s.batch, s.receipts = nil, nil
}

// Commit applies the ended session's batch as one rating period, recomputes
// ranks and snapshots the trails. If the rating update fails the recorded
// history is rolled back as well, leaving the pool as it was before the
// session. A session without matches commits nothing.
func (s *Session) Commit() (Result, error) {
	if s.state != Ended {
		return Result{}, ErrNotEnded
	}
	if s.done {
		return Result{}, ErrCommitted
	}
	if len(s.batch) == 0 {
		ranked, ranks := rating.Rank(s.pool)
		return Result{Ranked: ranked, Ranks: ranks}, nil
	}
	if err := s.engine.Apply(s.pool, s.batch); err != nil {
		s.log.Error().Err(err).Int("matches", len(s.batch)).Msg("rating update failed, rolling back session")
		s.Abandon()
		return Result{}, eris.Wrap(err, "failed to apply rating period")
	}
	ranked, ranks := rating.Rank(s.pool)
	s.tracker.Snapshot(ranks)
	s.done = true
	s.log.Info().Int("matches", len(s.batch)).Msg("session committed")
	return Result{Matches: s.Batch(), Ranked: ranked, Ranks: ranks}, nil
}
