package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sumire/issuetracker/internal/domain"
)

// ProjectStore is the storage collaborator consumed by Tracker. The store
// owns connection lifecycle, on-disk format, and identifier generation.
type ProjectStore interface {
	Get(ctx context.Context, name string) (*domain.Project, error)
	Create(ctx context.Context, name string) (*domain.Project, error)
	Persist(ctx context.Context, p *domain.Project) error
	NewIssueID() string
}

// Tracker implements the issue operations over per-project collections.
// Every mutation is a fetch-modify-persist round trip on one project.
type Tracker struct {
	projects ProjectStore
	now      func() time.Time
}

// NewTracker creates a new Tracker.
func NewTracker(projects ProjectStore) *Tracker {
	return &Tracker{projects: projects, now: time.Now}
}

// ListIssues returns the project's issues matching the filter, in creation
// order. An unknown project yields an empty list, not an error.
func (t *Tracker) ListIssues(ctx context.Context, project string, filter domain.Filter) ([]domain.Issue, error) {
	p, err := t.projects.Get(ctx, project)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return []domain.Issue{}, nil
		}
		return nil, fmt.Errorf("list issues for %q: %w", project, err)
	}
	return filter.Apply(p.Issues), nil
}

// CreateIssue validates the input, appends a new issue to the project
// (establishing the project on first use) and returns the stored record.
// Validation failure creates nothing, not even the project.
func (t *Tracker) CreateIssue(ctx context.Context, project string, in domain.IssueInput) (*domain.Issue, error) {
	issue, err := domain.NewIssue(t.projects.NewIssueID(), in, t.now())
	if err != nil {
		return nil, err
	}

	p, err := t.findOrCreate(ctx, project)
	if err != nil {
		return nil, err
	}

	p.AppendIssue(issue)
	if err := t.projects.Persist(ctx, p); err != nil {
		return nil, fmt.Errorf("persist new issue in %q: %w", project, err)
	}
	return &issue, nil
}

// UpdateIssue applies a partial update to one issue and refreshes its
// updated_on timestamp. Every provided field lands in a single persist.
func (t *Tracker) UpdateIssue(ctx context.Context, project, id string, patch domain.IssuePatch) error {
	if id == "" {
		return domain.ErrMissingID
	}
	if !patch.Effective() {
		return domain.ErrNoUpdateFields
	}

	p, issue, err := t.findIssue(ctx, project, id)
	if err != nil {
		return err
	}

	patch.Apply(issue, t.now())
	if err := t.projects.Persist(ctx, p); err != nil {
		return fmt.Errorf("persist update in %q: %w", project, err)
	}
	return nil
}

// DeleteIssue permanently removes one issue from the project's sequence.
// There is no tombstone: a repeated delete reports the issue as not found.
func (t *Tracker) DeleteIssue(ctx context.Context, project, id string) error {
	if id == "" {
		return domain.ErrMissingID
	}

	p, _, err := t.findIssue(ctx, project, id)
	if err != nil {
		return err
	}

	p.RemoveIssue(id)
	if err := t.projects.Persist(ctx, p); err != nil {
		return fmt.Errorf("persist delete in %q: %w", project, err)
	}
	return nil
}

// findIssue resolves project and issue together, collapsing both misses
// into ErrIssueNotFound for the mutation paths.
func (t *Tracker) findIssue(ctx context.Context, project, id string) (*domain.Project, *domain.Issue, error) {
	p, err := t.projects.Get(ctx, project)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, nil, domain.ErrIssueNotFound
		}
		return nil, nil, fmt.Errorf("find project %q: %w", project, err)
	}

	issue, ok := p.FindIssue(id)
	if !ok {
		return nil, nil, domain.ErrIssueNotFound
	}
	return p, issue, nil
}

func (t *Tracker) findOrCreate(ctx context.Context, name string) (*domain.Project, error) {
	p, err := t.projects.Get(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProjectNotFound) {
		return nil, fmt.Errorf("find project %q: %w", name, err)
	}

	p, err = t.projects.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create project %q: %w", name, err)
	}
	return p, nil
}
