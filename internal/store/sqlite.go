package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"gradfinder.dev/gradfinder/internal/logger"
)

var _ ProgramStore = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewSQLiteStore(dataSourceName string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, log: log.With("service", "SQLiteStore")}
	if err = store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS programs (
        id TEXT PRIMARY KEY, -- UUID
        name TEXT NOT NULL,
        university TEXT NOT NULL,
        country TEXT,
        degree_type TEXT,
        description TEXT,
        research_areas_json TEXT NOT NULL DEFAULT '[]',
        professors_json TEXT NOT NULL DEFAULT '[]',
        ranking INTEGER,
        tags_json TEXT NOT NULL DEFAULT '[]',
        ai_summary TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_programs_created_at ON programs (created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

const programColumns = "id, name, university, country, degree_type, description, research_areas_json, professors_json, ranking, tags_json, ai_summary, created_at"

func (s *SQLiteStore) CreateProgram(ctx context.Context, p *Program) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.normalize()

	researchAreas, err := json.Marshal(p.ResearchAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal research areas: %w", err)
	}
	professors, err := json.Marshal(p.Professors)
	if err != nil {
		return fmt.Errorf("failed to marshal professors: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO programs ("+programColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare program insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		p.ID, p.Name, p.University, p.Country, p.DegreeType, p.Description,
		string(researchAreas), string(professors), p.Ranking, string(tags), p.AISummary, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute program insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProgramByID(ctx context.Context, id string) (*Program, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+programColumns+" FROM programs WHERE id = ?", id)
	p, err := s.scanProgram(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPrograms(ctx context.Context, limit, offset int) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+programColumns+" FROM programs ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	programs := []Program{}
	for rows.Next() {
		p, err := s.scanProgram(rows)
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

func (s *SQLiteStore) UpdateProgramSummary(ctx context.Context, id, summary string) (*Program, error) {
	stmt, err := s.db.PrepareContext(ctx, "UPDATE programs SET ai_summary = ? WHERE id = ?")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare summary update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, summary, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute summary update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrProgramNotFound
	}

	p, err := s.GetProgramByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProgramNotFound
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanProgram(row rowScanner) (*Program, error) {
	var p Program
	var country, degreeType, description, aiSummary sql.NullString
	var ranking sql.NullInt64
	var researchAreasJSON, professorsJSON, tagsJSON string

	err := row.Scan(&p.ID, &p.Name, &p.University, &country, &degreeType, &description,
		&researchAreasJSON, &professorsJSON, &ranking, &tagsJSON, &aiSummary, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Country = nullString(country)
	p.DegreeType = nullString(degreeType)
	p.Description = nullString(description)
	p.AISummary = nullString(aiSummary)
	if ranking.Valid {
		r := int(ranking.Int64)
		p.Ranking = &r
	}

	p.ResearchAreas = s.decodeList(p.ID, "research_areas", researchAreasJSON)
	p.Professors = s.decodeList(p.ID, "professors", professorsJSON)
	p.Tags = s.decodeList(p.ID, "tags", tagsJSON)
	p.normalize()
	return &p, nil
}

// decodeList reads a JSON-encoded string list column. A corrupt value is
// logged and read as empty rather than failing the whole row.
func (s *SQLiteStore) decodeList(id, column, raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.log.Warn("Failed to decode list column, using empty list", "program_id", id, "column", column, "error", err)
		return []string{}
	}
	return out
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
