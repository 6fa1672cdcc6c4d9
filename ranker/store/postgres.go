package store

import (
	"context"
	"embed"
	"slices"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/pool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct {
	*pgxpool.Pool
	log zerolog.Logger
}

func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open postgres pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "failed to reach postgres")
	}
	return &DB{Pool: p, log: logger.With().Str("component", "store.postgres").Logger()}, nil
}

func (db *DB) Close() { db.Pool.Close() }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return eris.Wrap(err, "failed to read embedded schema")
	}
	if _, err := db.Exec(ctx, string(sqlBytes)); err != nil {
		return eris.Wrap(err, "failed to apply schema")
	}
	return nil
}

/* -----------------------------
   Pool state
------------------------------*/

func (db *DB) Load(ctx context.Context) (*pool.Pool, error) {
	rows, err := db.Query(ctx, `
		SELECT id, name, rating, deviation, volatility,
		       wins, losses, draws, recent, rating_trail, rank_trail
		  FROM entities
		 ORDER BY id
	`)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query entities")
	}
	defer rows.Close()

	var recs []EntityRecord
	for rows.Next() {
		var (
			r         EntityRecord
			recent    []byte
			rankTrail []int32
		)
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Rating.Value, &r.Rating.Deviation, &r.Rating.Volatility,
			&r.History.Wins, &r.History.Losses, &r.History.Draws,
			&recent, &r.History.RatingTrail, &rankTrail,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan entity")
		}
		if err := json.Unmarshal(recent, &r.History.Recent); err != nil {
			db.log.Warn().Err(err).Str("name", r.Name).Msg("dropping unreadable recent window")
			r.History.Recent = nil
		}
		for _, v := range rankTrail {
			r.History.RankTrail = append(r.History.RankTrail, int(v))
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read entities")
	}
	if len(recs) == 0 {
		db.log.Info().Msg("no saved state")
		return nil, nil
	}

	p, err := FromRecords(recs)
	if err != nil {
		if qerr := db.quarantine(ctx, err); qerr != nil {
			return nil, qerr
		}
		return nil, nil
	}
	db.log.Info().Int("entities", p.Len()).Msg("loaded state")
	return p, nil
}

const quarantineTable = `
	CREATE TABLE IF NOT EXISTS entities_corrupt (
		LIKE entities,
		quarantined_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// quarantine moves unusable entity rows into entities_corrupt so the next
// save cannot delete them. Load fails when they cannot be moved.
func (db *DB) quarantine(ctx context.Context, cause error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return eris.Wrap(err, "failed to begin quarantine")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, quarantineTable); err != nil {
		return eris.Wrap(err, "failed to create entities_corrupt")
	}
	tag, err := tx.Exec(ctx, `INSERT INTO entities_corrupt SELECT e.*, now() FROM entities e`)
	if err != nil {
		return eris.Wrap(err, "failed to copy corrupt entities")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM entities`); err != nil {
		return eris.Wrap(err, "failed to clear corrupt entities")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "failed to commit quarantine")
	}
	db.log.Warn().Err(cause).Int64("rows", tag.RowsAffected()).
		Msg("corrupt state moved to entities_corrupt, starting from seed")
	return nil
}

// Save replaces the stored pool atomically.
func (db *DB) Save(ctx context.Context, p *pool.Pool) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return eris.Wrap(err, "failed to begin save")
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `DELETE FROM entities`); err != nil {
		return eris.Wrap(err, "failed to clear entities")
	}

	batch := &pgx.Batch{}
	for _, r := range ToRecords(p) {
		recent, err := json.Marshal(r.History.Recent)
		if err != nil {
			return eris.Wrapf(err, "failed to marshal recent window of %q", r.Name)
		}
		rankTrail := make([]int32, len(r.History.RankTrail))
		for i, v := range r.History.RankTrail {
			rankTrail[i] = int32(v)
		}
		batch.Queue(`
			INSERT INTO entities(
				id, name, rating, deviation, volatility,
				wins, losses, draws, recent, rating_trail, rank_trail
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, r.ID, r.Name, r.Rating.Value, r.Rating.Deviation, r.Rating.Volatility,
			r.History.Wins, r.History.Losses, r.History.Draws,
			string(recent), r.History.RatingTrail, rankTrail)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return eris.Wrap(err, "failed to insert entities")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "failed to commit save")
	}
	db.log.Info().Int("entities", p.Len()).Msg("saved state")
	return nil
}

/* -----------------------------
   Session log
------------------------------*/

func (db *DB) LogSession(ctx context.Context, rec SessionRecord) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return eris.Wrap(err, "failed to begin session log")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions(id, started_at, ended_at, matches)
		VALUES ($1,$2,$3,$4)
	`, rec.ID, rec.StartedAt, rec.EndedAt, len(rec.Matches)); err != nil {
		return eris.Wrap(err, "failed to insert session")
	}
	batch := &pgx.Batch{}
	for i, m := range rec.Matches {
		batch.Queue(`
			INSERT INTO session_matches(session_id, seq, a_name, b_name, outcome)
			VALUES ($1,$2,$3,$4,$5)
		`, rec.ID, i, m.A, m.B, string(m.Outcome))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return eris.Wrap(err, "failed to insert session matches")
	}
	return tx.Commit(ctx)
}

// Sessions returns the most recent sessions, oldest first.
func (db *DB) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := db.Query(ctx, `
		SELECT id, started_at, ended_at
		  FROM sessions
		 ORDER BY started_at DESC
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	var (
		out []SessionRecord
		ids []string
	)
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, eris.Wrap(err, "failed to scan session")
		}
		out = append(out, r)
		ids = append(ids, r.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read sessions")
	}
	if len(out) == 0 {
		return nil, nil
	}

	mrows, err := db.Query(ctx, `
		SELECT session_id, a_name, b_name, outcome
		  FROM session_matches
		 WHERE session_id = ANY($1::uuid[])
		 ORDER BY session_id, seq
	`, ids)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query session matches")
	}
	defer mrows.Close()

	idx := make(map[uuid.UUID]int, len(out))
	for i, r := range out {
		idx[r.ID] = i
	}
	for mrows.Next() {
		var (
			id      uuid.UUID
			m       MatchRecord
			outcome string
		)
		if err := mrows.Scan(&id, &m.A, &m.B, &outcome); err != nil {
			return nil, eris.Wrap(err, "failed to scan session match")
		}
		m.Outcome = pool.Outcome(outcome)
		if i, ok := idx[id]; ok {
			out[i].Matches = append(out[i].Matches, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read session matches")
	}

	slices.Reverse(out)
	return out, nil
}
