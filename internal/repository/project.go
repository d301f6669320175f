package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sumire/issuetracker/internal/domain"
)

// ProjectRepository stores each project as a single row with its issues
// embedded as a JSONB document. Mutations fetch the whole document, modify
// it in memory, and write it back.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// EnsureSchema creates the projects table if it does not exist yet. Safe to
// run on every boot.
func (r *ProjectRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			name   TEXT PRIMARY KEY,
			issues JSONB NOT NULL DEFAULT '[]'
		)`)
	if err != nil {
		return fmt.Errorf("ensure projects schema: %w", err)
	}
	return nil
}

type projectRow struct {
	Name   string `db:"name"`
	Issues []byte `db:"issues"`
}

// Get retrieves a project by name. A missing project is reported as
// domain.ErrProjectNotFound, which read paths treat as a valid outcome.
func (r *ProjectRepository) Get(ctx context.Context, name string) (*domain.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row,
		`SELECT name, issues FROM projects WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return rowToProject(row)
}

// Create establishes an empty project. A concurrent creator is tolerated:
// whoever loses the insert still reads the surviving row back.
func (r *ProjectRepository) Create(ctx context.Context, name string) (*domain.Project, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, issues) VALUES ($1, '[]')
		 ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return nil, fmt.Errorf("create project %q: %w", name, err)
	}
	return r.Get(ctx, name)
}

// Persist writes the project's whole issue document back. Two concurrent
// mutations of the same project race last-writer-wins; callers accept that.
func (r *ProjectRepository) Persist(ctx context.Context, p *domain.Project) error {
	doc, err := json.Marshal(p.Issues)
	if err != nil {
		return fmt.Errorf("encode issues for %q: %w", p.Name, err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET issues = $2 WHERE name = $1`, p.Name, doc)
	if err != nil {
		return fmt.Errorf("persist project %q: %w", p.Name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("persist project %q: %w", p.Name, err)
	}
	if rows == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// NewIssueID mints an identifier for a new issue. Identifiers are opaque
// outside this layer.
func (r *ProjectRepository) NewIssueID() string {
	return uuid.New().String()
}

func rowToProject(row projectRow) (*domain.Project, error) {
	p := &domain.Project{Name: row.Name}
	if len(row.Issues) > 0 {
		if err := json.Unmarshal(row.Issues, &p.Issues); err != nil {
			return nil, fmt.Errorf("decode issues for %q: %w", row.Name, err)
		}
	}
	return p, nil
}
