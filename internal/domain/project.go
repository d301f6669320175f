package domain

// Project is a named grouping of issues. The sequence keeps insertion
// order: issues appear in the order they were created and never move.
type Project struct {
	Name   string
	Issues []Issue
}

// AppendIssue adds an issue to the end of the sequence.
func (p *Project) AppendIssue(i Issue) {
	p.Issues = append(p.Issues, i)
}

// FindIssue returns a pointer into the sequence for in-place mutation.
func (p *Project) FindIssue(id string) (*Issue, bool) {
	for n := range p.Issues {
		if p.Issues[n].ID == id {
			return &p.Issues[n], true
		}
	}
	return nil, false
}

// RemoveIssue permanently drops the issue with the given identifier,
// preserving the order of the survivors. It reports whether anything was
// removed.
func (p *Project) RemoveIssue(id string) bool {
	for n := range p.Issues {
		if p.Issues[n].ID == id {
			p.Issues = append(p.Issues[:n], p.Issues[n+1:]...)
			return true
		}
	}
	return false
}
