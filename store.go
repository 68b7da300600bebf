package lotbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store is the durable persistence boundary. Save must be atomic: a reader
// observes either the previous ledger or the new one, never a partial write.
type Store interface {
	Load(portfolioID string) (*Ledger, error)
	Save(l *Ledger) error
}

// DirStore persists one JSONL file per portfolio under a directory. Writes
// go through a temp file and rename, so a crash never leaves a torn file.
type DirStore struct {
	dir string
	log zerolog.Logger
}

func NewDirStore(dir string, log zerolog.Logger) *DirStore {
	return &DirStore{dir: dir, log: log.With().Str("component", "store").Logger()}
}

func (s *DirStore) path(portfolioID string) string {
	return filepath.Join(s.dir, portfolioID+".jsonl")
}

// Load reads a portfolio's ledger. A portfolio with no file yet is
// ErrPortfolioNotFound.
func (s *DirStore) Load(portfolioID string) (*Ledger, error) {
	f, err := os.Open(s.path(portfolioID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("portfolio %q: %w", portfolioID, ErrPortfolioNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("portfolio %q: %w", portfolioID, err)
	}
	if l.portfolio == "" {
		l.portfolio = portfolioID
	}
	return l, nil
}

// Save writes the full ledger and atomically replaces the previous file.
func (s *DirStore) Save(l *Ledger) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+l.portfolio+"-*.jsonl")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := EncodeLedger(tmp, l); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(l.portfolio)); err != nil {
		return err
	}
	s.log.Debug().Str("portfolio", l.portfolio).Int("transactions", len(l.transactions)).Msg("ledger saved")
	return nil
}

var _ Store = (*DirStore)(nil)
