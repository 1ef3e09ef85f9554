package store

import (
	"context"
	"errors"

	"gradfinder.dev/gradfinder/internal/config"
	"gradfinder.dev/gradfinder/internal/logger"
)

// ErrProgramNotFound is returned by UpdateProgramSummary when no row matches.
var ErrProgramNotFound = errors.New("program not found")

// ProgramStore is the persistence boundary for program records. Lookups
// return (nil, nil) when the row does not exist.
type ProgramStore interface {
	CreateProgram(ctx context.Context, p *Program) error
	GetProgramByID(ctx context.Context, id string) (*Program, error)
	ListPrograms(ctx context.Context, limit, offset int) ([]Program, error)
	UpdateProgramSummary(ctx context.Context, id, summary string) (*Program, error)
	Close() error
}

// Open picks the backend from the configured database URL: postgres:// URLs
// use PostgresStore, anything else is treated as a SQLite data source.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ProgramStore, error) {
	if cfg.UsesPostgres() {
		pg, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DatabaseServiceKey, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := NewSQLiteStore(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	return lite, nil
}
