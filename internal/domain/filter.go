package domain

import (
	"net/url"
	"strconv"
	"time"
)

// issueFields enumerates the fields a list query may constrain on. The
// original API accepted arbitrary query keys and let comparison against an
// absent field exclude everything; here the field set is explicit, with the
// same observable result for unknown keys.
var issueFields = map[string]bool{
	"_id":         true,
	"issue_title": true,
	"issue_text":  true,
	"created_by":  true,
	"assigned_to": true,
	"status_text": true,
	"open":        true,
	"created_on":  true,
	"updated_on":  true,
}

// Filter is a set of field=value constraints for list queries. An issue is
// selected only when every constraint matches. The open field is coerced to
// a real boolean; every other field compares as its string representation.
type Filter struct {
	text map[string]string
	open *bool

	// impossible marks a filter that can never match: an unknown field,
	// or an open value that is not a boolean.
	impossible bool
}

// ParseFilter builds a filter from URL query values. It never fails; a
// constraint that cannot be satisfied yields a filter matching no issues.
func ParseFilter(values url.Values) Filter {
	f := Filter{text: make(map[string]string)}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch {
		case key == "open":
			b, err := strconv.ParseBool(v)
			if err != nil {
				f.impossible = true
				continue
			}
			f.open = &b
		case issueFields[key]:
			f.text[key] = v
		default:
			f.impossible = true
		}
	}
	return f
}

// Match reports whether the issue satisfies every constraint. Comparison
// short-circuits on the first mismatch.
func (f Filter) Match(i Issue) bool {
	if f.impossible {
		return false
	}
	if f.open != nil && i.Open != *f.open {
		return false
	}
	for field, want := range f.text {
		if fieldString(i, field) != want {
			return false
		}
	}
	return true
}

// Apply returns the ordered subsequence of issues matching the filter. With
// zero constraints the full sequence comes back unchanged, in insertion
// order. The result is never nil so an empty project lists as [].
func (f Filter) Apply(issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		if f.Match(i) {
			out = append(out, i)
		}
	}
	return out
}

// fieldString renders an issue field the way it appears on the wire, so
// timestamp constraints compare against the JSON representation.
func fieldString(i Issue, field string) string {
	switch field {
	case "_id":
		return i.ID
	case "issue_title":
		return i.IssueTitle
	case "issue_text":
		return i.IssueText
	case "created_by":
		return i.CreatedBy
	case "assigned_to":
		return i.AssignedTo
	case "status_text":
		return i.StatusText
	case "created_on":
		return i.CreatedOn.Format(time.RFC3339Nano)
	case "updated_on":
		return i.UpdatedOn.Format(time.RFC3339Nano)
	}
	return ""
}
