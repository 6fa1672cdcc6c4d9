// Command ranker builds a personal ranking of a list of names from pairwise
// judgments, rated with Glicko-2 one session at a time.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/console"
	"glicko-ranker/ranker/matchmaker"
	"glicko-ranker/ranker/pool"
	"glicko-ranker/ranker/session"
	"glicko-ranker/ranker/store"
)

const saveTimeout = 10 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error().Str("trace", eris.ToString(err, true)).Msg("ranker failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).With().Timestamp().Logger()
}

func run(cfg Config, log zerolog.Logger) error {
	names, err := store.LoadNames(cfg.SeedPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := loadPool(ctx, st, names, log)
	if err != nil {
		return err
	}
	if p.Len() < 2 {
		return eris.Wrapf(session.ErrPoolTooSmall, "%s lists %d", cfg.SeedPath, p.Len())
	}

	pr := console.NewPrompt(os.Stdin, console.NewPrinter(os.Stdout, cfg.Color()), log)
	lobby := &Lobby{
		Pool:   p,
		Store:  st,
		Engine: cfg.Engine(),
		Picker: matchmaker.New(cfg.RNGSeed),
		Prompt: pr,
		Log:    log,
	}
	lobbyErr := lobby.Run(ctx)

	// An interrupted session has already been rolled back, so the pool is
	// always in a committed state here.
	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancelSave()
	if err := st.Save(saveCtx, p); err != nil {
		return err
	}
	log.Info().Int("entities", p.Len()).Msg("saved")

	if lobbyErr != nil && ctx.Err() == nil {
		return lobbyErr
	}
	return nil
}

func openStore(ctx context.Context, cfg Config, log zerolog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewFileStore(cfg.DataPath, cfg.SessionLog, log), nil
	}
	db, err := store.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Msg("schema applied")
	}
	return db, nil
}

// loadPool restores the saved pool and reconciles it with the seed names, or
// starts fresh from the seed when nothing was saved.
func loadPool(ctx context.Context, st store.Store, names []string, log zerolog.Logger) (*pool.Pool, error) {
	saved, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		log.Info().Int("entities", len(names)).Msg("initialising from seed")
		return pool.New(names)
	}
	p, ch, err := pool.Reconcile(saved, names)
	if err != nil {
		return nil, err
	}
	if !ch.Empty() {
		log.Info().Strs("added", ch.Added).Strs("retired", ch.Retired).Msg("reconciled with seed")
	}
	return p, nil
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
}
