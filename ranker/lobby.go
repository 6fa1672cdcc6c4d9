package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/console"
	"glicko-ranker/ranker/pool"
	"glicko-ranker/ranker/rating"
	"glicko-ranker/ranker/session"
	"glicko-ranker/ranker/store"
)

const sessionsShown = 10

// Lobby is the command loop between sessions.
type Lobby struct {
	Pool   *pool.Pool
	Store  store.Store
	Engine rating.Engine
	Picker session.PairPicker
	Prompt *console.Prompt
	Log    zerolog.Logger
}

// Run reads commands until exit, end of input or cancellation. It returns
// ctx.Err() when cancelled.
func (l *Lobby) Run(ctx context.Context) error {
	l.Prompt.LobbyHelp()
	for {
		l.Prompt.Print("\n> ")
		line, err := l.Prompt.ReadLine(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch strings.ToLower(cmd) {
		case "start":
			if err := l.start(ctx); err != nil {
				return err
			}
		case "list":
			ranked, ranks := rating.Rank(l.Pool)
			l.Prompt.List(ranked, ranks)
		case "stat":
			l.stat(strings.TrimSpace(arg))
		case "summary":
			s, err := console.Summarize(l.Pool)
			if err != nil {
				l.Log.Warn().Err(err).Msg("summary unavailable")
				continue
			}
			l.Prompt.Summary(s)
		case "sessions":
			recs, err := l.Store.Sessions(ctx, sessionsShown)
			if err != nil {
				l.Log.Error().Err(err).Msg("failed to read session log")
				continue
			}
			l.Prompt.Sessions(recs)
		case "exit", "quit":
			return nil
		default:
			l.Prompt.LobbyHelp()
		}
	}
}

// start runs one session, commits it and persists the result. Only
// cancellation is returned; other failures are logged and the lobby goes on
// with the pool as it was before the session.
func (l *Lobby) start(ctx context.Context) error {
	s, err := session.New(session.Options{
		Pool:     l.Pool,
		Picker:   l.Picker,
		Judge:    l.Prompt,
		Reporter: l.Prompt,
		Engine:   l.Engine,
		Logger:   l.Log,
	})
	if err != nil {
		l.Log.Error().Err(err).Msg("cannot start session")
		return nil
	}

	l.Prompt.SessionStart(l.Pool.Len())
	if err := s.Run(ctx); err != nil {
		if ctx.Err() != nil {
			l.Log.Warn().Str("session_id", s.ID.String()).Msg("interrupted, session discarded")
			return ctx.Err()
		}
		l.Log.Error().Err(err).Msg("session aborted")
		return nil
	}

	res, err := s.Commit()
	if err != nil {
		var nc *rating.NonConvergenceError
		if errors.As(err, &nc) {
			l.Log.Error().Int("entity", nc.EntityID).Str("name", l.Pool.Name(nc.EntityID)).
				Int("iterations", nc.Iterations).Msg("volatility did not converge, session discarded")
		} else {
			l.Log.Error().Err(err).Msg("commit failed, session discarded")
		}
		return nil
	}
	if len(res.Matches) == 0 {
		return nil
	}

	rec := store.NewSessionRecord(s.ID, s.StartedAt, s.EndedAt, l.Pool, res.Matches)
	if err := l.Store.LogSession(ctx, rec); err != nil {
		l.Log.Error().Err(err).Msg("failed to log session")
	}
	if err := l.Store.Save(ctx, l.Pool); err != nil {
		l.Log.Error().Err(err).Msg("failed to save pool")
	}
	l.Prompt.List(res.Ranked, res.Ranks)
	return nil
}

func (l *Lobby) stat(arg string) {
	if arg == "" {
		l.Prompt.StatUsage()
		return
	}
	e, err := resolve(l.Pool, arg)
	if err != nil {
		l.Prompt.Print(err.Error() + "\n")
		return
	}
	ranked, ranks := rating.Rank(l.Pool)
	l.Prompt.Stat(e, ranked, ranks, l.Pool)
}

// resolve finds an entity by exact name first, then by numeric id.
func resolve(p *pool.Pool, arg string) (*pool.Entity, error) {
	if e, ok := p.Lookup(arg); ok {
		return e, nil
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if e := p.Get(id); e != nil {
			return e, nil
		}
	}
	return nil, eris.Errorf("no entity %q", arg)
}
