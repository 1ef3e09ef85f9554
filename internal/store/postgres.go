package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradfinder.dev/gradfinder/internal/logger"
)

var _ ProgramStore = (*PostgresStore)(nil)

// PostgresStore keeps programs in a managed Postgres database. List fields
// map to native text[] columns.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresStore connects to databaseURL. serviceKey, when set, is used as
// the password if the URL does not carry one.
func NewPostgresStore(ctx context.Context, databaseURL, serviceKey string, log *logger.Logger) (*PostgresStore, error) {
	dsn, err := withServiceKey(databaseURL, serviceKey)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	store := &PostgresStore{pool: pool, log: log.With("service", "PostgresStore")}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func withServiceKey(databaseURL, serviceKey string) (string, error) {
	if serviceKey == "" {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	if u.User == nil {
		u.User = url.UserPassword("postgres", serviceKey)
	} else if _, hasPassword := u.User.Password(); !hasPassword {
		u.User = url.UserPassword(u.User.Username(), serviceKey)
	}
	return u.String(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS programs (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        university TEXT NOT NULL,
        country TEXT,
        degree_type TEXT,
        description TEXT,
        research_areas TEXT[] NOT NULL DEFAULT '{}',
        professors TEXT[] NOT NULL DEFAULT '{}',
        ranking INTEGER,
        tags TEXT[] NOT NULL DEFAULT '{}',
        ai_summary TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );

    CREATE INDEX IF NOT EXISTS idx_programs_created_at ON programs (created_at DESC);
    `
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const pgProgramColumns = "id, name, university, country, degree_type, description, research_areas, professors, ranking, tags, ai_summary, created_at"

func (s *PostgresStore) CreateProgram(ctx context.Context, p *Program) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.normalize()

	_, err := s.pool.Exec(ctx,
		"INSERT INTO programs ("+pgProgramColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		p.ID, p.Name, p.University, p.Country, p.DegreeType, p.Description,
		p.ResearchAreas, p.Professors, p.Ranking, p.Tags, p.AISummary, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute program insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProgramByID(ctx context.Context, id string) (*Program, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgProgramColumns+" FROM programs WHERE id = $1", id)
	p, err := scanPgProgram(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPrograms(ctx context.Context, limit, offset int) ([]Program, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+pgProgramColumns+" FROM programs ORDER BY created_at DESC, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	programs := []Program{}
	for rows.Next() {
		p, err := scanPgProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program row: %w", err)
		}
		programs = append(programs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate program rows: %w", err)
	}
	return programs, nil
}

func (s *PostgresStore) UpdateProgramSummary(ctx context.Context, id, summary string) (*Program, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE programs SET ai_summary = $1 WHERE id = $2 RETURNING "+pgProgramColumns,
		summary, id,
	)
	p, err := scanPgProgram(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to execute summary update: %w", err)
	}
	return p, nil
}

func scanPgProgram(row pgx.Row) (*Program, error) {
	var p Program
	err := row.Scan(&p.ID, &p.Name, &p.University, &p.Country, &p.DegreeType, &p.Description,
		&p.ResearchAreas, &p.Professors, &p.Ranking, &p.Tags, &p.AISummary, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}
