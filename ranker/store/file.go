package store

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/pool"
)

// FileStore keeps the pool as a JSON array and appends sessions to a JSONL log.
type FileStore struct {
	Path       string
	SessionLog string // empty disables the log
	log        zerolog.Logger
}

func NewFileStore(path, sessionLog string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		Path:       path,
		SessionLog: sessionLog,
		log:        logger.With().Str("component", "store.file").Logger(),
	}
}

func (s *FileStore) Load(ctx context.Context) (*pool.Pool, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info().Str("path", s.Path).Msg("no saved state")
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", s.Path)
	}

	var recs []EntityRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		s.quarantine(eris.Wrap(err, "invalid json"))
		return nil, nil
	}
	p, err := FromRecords(recs)
	if err != nil {
		s.quarantine(err)
		return nil, nil
	}
	s.log.Info().Str("path", s.Path).Int("entities", p.Len()).Msg("loaded state")
	return p, nil
}

// quarantine moves a corrupt state file aside so the next save cannot
// overwrite it.
func (s *FileStore) quarantine(cause error) {
	dst := s.Path + ".corrupt"
	if err := os.Rename(s.Path, dst); err != nil {
		s.log.Warn().Err(cause).AnErr("rename_err", err).Str("path", s.Path).Msg("corrupt state ignored")
		return
	}
	s.log.Warn().Err(cause).Str("path", s.Path).Str("moved_to", dst).Msg("corrupt state moved aside")
}

// Save writes to a temp file in the same directory and renames it over Path.
func (s *FileStore) Save(ctx context.Context, p *pool.Pool) error {
	b, err := json.MarshalIndent(ToRecords(p), "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to marshal pool")
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "failed to create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return eris.Wrap(err, "failed to write state")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "failed to close state file")
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return eris.Wrapf(err, "failed to replace %s", s.Path)
	}
	s.log.Info().Str("path", s.Path).Int("entities", p.Len()).Msg("saved state")
	return nil
}

func (s *FileStore) LogSession(ctx context.Context, rec SessionRecord) error {
	if s.SessionLog == "" {
		return nil
	}
	f, err := os.OpenFile(s.SessionLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", s.SessionLog)
	}
	defer f.Close()

	b, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "failed to marshal session")
	}
	b = append(b, '\n')
	if _, err := f.Write(b); err != nil {
		return eris.Wrap(err, "failed to append session")
	}
	return nil
}

// Sessions returns the last limit sessions of the log, oldest first. A
// non-positive limit returns all of them.
func (s *FileStore) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if s.SessionLog == "" {
		return nil, nil
	}
	f, err := os.Open(s.SessionLog)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s", s.SessionLog)
	}
	defer f.Close()

	var out []SessionRecord
	sc := bufio.NewScanner(f)
	// Allow larger lines than the default 64K.
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec SessionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, eris.Wrap(err, "invalid session log line")
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to scan session log")
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *FileStore) Close() {}
