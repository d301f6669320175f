package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

// memoryStore is an in-memory service.ProjectStore for handler tests.
type memoryStore struct {
	projects map[string][]domain.Issue
	nextID   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{projects: make(map[string][]domain.Issue)}
}

func (s *memoryStore) Get(_ context.Context, name string) (*domain.Project, error) {
	issues, ok := s.projects[name]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &domain.Project{Name: name, Issues: append([]domain.Issue(nil), issues...)}, nil
}

func (s *memoryStore) Create(_ context.Context, name string) (*domain.Project, error) {
	if _, ok := s.projects[name]; !ok {
		s.projects[name] = []domain.Issue{}
	}
	return &domain.Project{Name: name}, nil
}

func (s *memoryStore) Persist(_ context.Context, p *domain.Project) error {
	s.projects[p.Name] = append([]domain.Issue(nil), p.Issues...)
	return nil
}

func (s *memoryStore) NewIssueID() string {
	s.nextID++
	return fmt.Sprintf("issue-%d", s.nextID)
}

func newTestServer() *echo.Echo {
	e := echo.New()
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	h := NewIssueHandler(service.NewTracker(newMemoryStore()))
	h.Register(e.Group("/api"))
	return e
}

func doJSON(e *echo.Echo, method, target string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doForm(e *echo.Echo, method, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createIssue(t *testing.T, e *echo.Echo, project string, body map[string]any) map[string]any {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/issues/"+project, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create returned status %d: %s", rec.Code, rec.Body.String())
	}
	return decodeMap(t, rec)
}

func TestCreateIssueResponse(t *testing.T) {
	e := newTestServer()

	got := createIssue(t, e, "apitest", map[string]any{
		"issue_title": "t",
		"issue_text":  "x",
		"created_by":  "c",
	})

	if got["_id"] == "" || got["_id"] == nil {
		t.Error("response should include the assigned _id")
	}
	if got["open"] != true {
		t.Errorf("open = %v, want true", got["open"])
	}
	if got["assigned_to"] != "" || got["status_text"] != "" {
		t.Errorf("optional fields should default to empty: %v", got)
	}
	if got["created_on"] != got["updated_on"] {
		t.Errorf("created_on %v != updated_on %v", got["created_on"], got["updated_on"])
	}
}

func TestCreateIssueFormEncoded(t *testing.T) {
	e := newTestServer()

	rec := doForm(e, http.MethodPost, "/api/issues/apitest", url.Values{
		"issue_title": {"t"},
		"issue_text":  {"x"},
		"created_by":  {"c"},
		"assigned_to": {"bob"},
		"status_text": {"triage"},
	})
	got := decodeMap(t, rec)

	if got["assigned_to"] != "bob" || got["status_text"] != "triage" {
		t.Errorf("optional fields lost in form binding: %v", got)
	}
}

func TestCreateIssueMissingRequired(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/issues/apitest", map[string]any{
		"issue_title": "t",
		"created_by":  "c",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with error body", rec.Code)
	}
	got := decodeMap(t, rec)
	if got["error"] != "required field(s) missing" {
		t.Errorf("body = %v, want required field(s) missing", got)
	}
	if _, ok := got["_id"]; ok {
		t.Error("error body must not carry an _id")
	}

	// Nothing was appended.
	list := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest", nil))
	if len(list) != 0 {
		t.Errorf("list = %v, want empty", list)
	}
}

func TestListUnknownProject(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodGet, "/api/issues/ghost", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListWithFilters(t *testing.T) {
	e := newTestServer()

	createIssue(t, e, "apitest", map[string]any{"issue_title": "a", "issue_text": "x", "created_by": "alice"})
	createIssue(t, e, "apitest", map[string]any{"issue_title": "b", "issue_text": "x", "created_by": "bob"})
	createIssue(t, e, "apitest", map[string]any{"issue_title": "c", "issue_text": "x", "created_by": "alice"})

	list := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest?created_by=alice", nil))
	if len(list) != 2 {
		t.Fatalf("filtered list = %v, want 2 issues", list)
	}
	if list[0]["issue_title"] != "a" || list[1]["issue_title"] != "c" {
		t.Errorf("filtered order = %v,%v, want a,c", list[0]["issue_title"], list[1]["issue_title"])
	}

	all := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest", nil))
	if len(all) != 3 {
		t.Fatalf("unfiltered list has %d issues, want 3", len(all))
	}
}

func TestListFilterOnOpen(t *testing.T) {
	e := newTestServer()

	first := createIssue(t, e, "apitest", map[string]any{"issue_title": "a", "issue_text": "x", "created_by": "c"})
	createIssue(t, e, "apitest", map[string]any{"issue_title": "b", "issue_text": "x", "created_by": "c"})

	rec := doJSON(e, http.MethodPut, "/api/issues/apitest", map[string]any{
		"_id":  first["_id"],
		"open": false,
	})
	if got := decodeMap(t, rec); got["result"] != "successfully updated" {
		t.Fatalf("close issue: %v", got)
	}

	closed := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest?open=false", nil))
	if len(closed) != 1 || closed[0]["_id"] != first["_id"] {
		t.Errorf("open=false matched %v, want the closed issue only", closed)
	}

	open := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest?open=true", nil))
	if len(open) != 1 || open[0]["issue_title"] != "b" {
		t.Errorf("open=true matched %v, want issue b only", open)
	}
}

func TestUpdateIssueFlow(t *testing.T) {
	e := newTestServer()

	issue := createIssue(t, e, "apitest", map[string]any{"issue_title": "t", "issue_text": "x", "created_by": "c"})
	id := issue["_id"].(string)

	rec := doJSON(e, http.MethodPut, "/api/issues/apitest", map[string]any{
		"_id":         id,
		"assigned_to": "A",
	})
	got := decodeMap(t, rec)
	if got["result"] != "successfully updated" || got["_id"] != id {
		t.Fatalf("body = %v, want successfully updated with _id", got)
	}

	list := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest", nil))
	if list[0]["assigned_to"] != "A" {
		t.Errorf("assigned_to = %v after update, want A", list[0]["assigned_to"])
	}
	if list[0]["updated_on"] == issue["updated_on"] {
		t.Error("updated_on should have been refreshed")
	}
}

func TestUpdateIssueMissingID(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPut, "/api/issues/apitest", map[string]any{
		"assigned_to": "A",
	})
	got := decodeMap(t, rec)
	if got["error"] != "missing _id" {
		t.Errorf("body = %v, want missing _id", got)
	}
	if _, ok := got["_id"]; ok {
		t.Error("missing _id body must not echo an _id")
	}
}

func TestUpdateIssueNoFields(t *testing.T) {
	e := newTestServer()

	issue := createIssue(t, e, "apitest", map[string]any{"issue_title": "t", "issue_text": "x", "created_by": "c"})
	id := issue["_id"].(string)

	rec := doJSON(e, http.MethodPut, "/api/issues/apitest", map[string]any{"_id": id})
	got := decodeMap(t, rec)
	if got["error"] != "no update field(s) sent" || got["_id"] != id {
		t.Errorf("body = %v, want no update field(s) sent with _id", got)
	}
}

func TestUpdateIssueUnknownID(t *testing.T) {
	e := newTestServer()
	createIssue(t, e, "apitest", map[string]any{"issue_title": "t", "issue_text": "x", "created_by": "c"})

	rec := doJSON(e, http.MethodPut, "/api/issues/apitest", map[string]any{
		"_id":         "no-such-id",
		"assigned_to": "A",
	})
	got := decodeMap(t, rec)
	if got["error"] != "could not update" || got["_id"] != "no-such-id" {
		t.Errorf("body = %v, want could not update with _id", got)
	}
}

func TestDeleteIssueFlow(t *testing.T) {
	e := newTestServer()

	issue := createIssue(t, e, "apitest", map[string]any{"issue_title": "t", "issue_text": "x", "created_by": "c"})
	id := issue["_id"].(string)

	rec := doJSON(e, http.MethodDelete, "/api/issues/apitest", map[string]any{"_id": id})
	got := decodeMap(t, rec)
	if got["result"] != "successfully deleted" || got["_id"] != id {
		t.Fatalf("body = %v, want successfully deleted with _id", got)
	}

	list := decodeList(t, doJSON(e, http.MethodGet, "/api/issues/apitest", nil))
	if len(list) != 0 {
		t.Errorf("list = %v after delete, want empty", list)
	}

	// Repeating the delete never succeeds twice.
	rec = doJSON(e, http.MethodDelete, "/api/issues/apitest", map[string]any{"_id": id})
	got = decodeMap(t, rec)
	if got["error"] != "could not delete" || got["_id"] != id {
		t.Errorf("repeat delete body = %v, want could not delete with _id", got)
	}
}

func TestDeleteIssueMissingID(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodDelete, "/api/issues/apitest", map[string]any{})
	got := decodeMap(t, rec)
	if got["error"] != "missing _id" {
		t.Errorf("body = %v, want missing _id", got)
	}
}
