package domain

import "time"

// Issue is a single trackable record within a project. Field names on the
// wire follow the original API contract, with the identifier exposed as _id.
type Issue struct {
	ID         string    `json:"_id"`
	IssueTitle string    `json:"issue_title"`
	IssueText  string    `json:"issue_text"`
	CreatedBy  string    `json:"created_by"`
	AssignedTo string    `json:"assigned_to"`
	StatusText string    `json:"status_text"`
	Open       bool      `json:"open"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// IssueInput carries the caller-supplied fields for creating an issue.
type IssueInput struct {
	IssueTitle string
	IssueText  string
	CreatedBy  string
	AssignedTo string
	StatusText string
}

// NewIssue builds an issue from input, applying creation defaults: open is
// true, assigned_to and status_text fall back to empty strings, and both
// timestamps are captured at this call. The identifier is minted by the
// storage layer and passed in; the rest of the system treats it as opaque.
func NewIssue(id string, in IssueInput, now time.Time) (Issue, error) {
	if in.IssueTitle == "" || in.IssueText == "" || in.CreatedBy == "" {
		return Issue{}, ErrRequiredFieldsMissing
	}

	now = now.UTC()
	return Issue{
		ID:         id,
		IssueTitle: in.IssueTitle,
		IssueText:  in.IssueText,
		CreatedBy:  in.CreatedBy,
		AssignedTo: in.AssignedTo,
		StatusText: in.StatusText,
		Open:       true,
		CreatedOn:  now,
		UpdatedOn:  now,
	}, nil
}

// IssuePatch is a partial update. Nil fields were not provided by the
// caller; non-nil fields are assigned verbatim, empty strings included.
type IssuePatch struct {
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
}

// Effective reports whether the patch carries at least one usable update.
// A provided-but-empty string does not count; a provided open flag always
// does, false included.
func (p IssuePatch) Effective() bool {
	for _, s := range []*string{p.IssueTitle, p.IssueText, p.CreatedBy, p.AssignedTo, p.StatusText} {
		if s != nil && *s != "" {
			return true
		}
	}
	return p.Open != nil
}

// Apply assigns every provided field onto the issue and refreshes
// updated_on. Callers persist the owning project in a single write, so a
// failed write leaves the stored record untouched.
func (p IssuePatch) Apply(i *Issue, now time.Time) {
	if p.IssueTitle != nil {
		i.IssueTitle = *p.IssueTitle
	}
	if p.IssueText != nil {
		i.IssueText = *p.IssueText
	}
	if p.CreatedBy != nil {
		i.CreatedBy = *p.CreatedBy
	}
	if p.AssignedTo != nil {
		i.AssignedTo = *p.AssignedTo
	}
	if p.StatusText != nil {
		i.StatusText = *p.StatusText
	}
	if p.Open != nil {
		i.Open = *p.Open
	}
	i.UpdatedOn = now.UTC()
}
