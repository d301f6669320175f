package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

// IssueHandler exposes the issue operations on /issues/:project.
type IssueHandler struct {
	tracker *service.Tracker
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(tracker *service.Tracker) *IssueHandler {
	return &IssueHandler{tracker: tracker}
}

// Register mounts the issue routes on the given group.
func (h *IssueHandler) Register(g *echo.Group) {
	g.GET("/issues/:project", h.List)
	g.POST("/issues/:project", h.Create)
	g.PUT("/issues/:project", h.Update)
	g.DELETE("/issues/:project", h.Delete)
}

// CreateIssueRequest carries the creation payload. Bodies arrive as JSON or
// classic form posts; echo binds both.
type CreateIssueRequest struct {
	IssueTitle string `json:"issue_title" form:"issue_title" validate:"required"`
	IssueText  string `json:"issue_text" form:"issue_text" validate:"required"`
	CreatedBy  string `json:"created_by" form:"created_by" validate:"required"`
	AssignedTo string `json:"assigned_to" form:"assigned_to"`
	StatusText string `json:"status_text" form:"status_text"`
}

// UpdateIssueRequest carries a partial update. Pointer fields distinguish
// "not provided" from "provided empty".
type UpdateIssueRequest struct {
	ID         string  `json:"_id" form:"_id"`
	IssueTitle *string `json:"issue_title" form:"issue_title"`
	IssueText  *string `json:"issue_text" form:"issue_text"`
	CreatedBy  *string `json:"created_by" form:"created_by"`
	AssignedTo *string `json:"assigned_to" form:"assigned_to"`
	StatusText *string `json:"status_text" form:"status_text"`
	Open       *bool   `json:"open" form:"open"`
}

// DeleteIssueRequest carries the identifier of the issue to remove.
type DeleteIssueRequest struct {
	ID string `json:"_id" form:"_id"`
}

// List returns the project's issues matching the query constraints. An
// unknown project responds with an empty array.
func (h *IssueHandler) List(c echo.Context) error {
	filter := domain.ParseFilter(c.QueryParams())

	issues, err := h.tracker.ListIssues(c.Request().Context(), c.Param("project"), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issues)
}

// Create adds an issue to the project, establishing the project on first
// use, and responds with the full stored record.
func (h *IssueHandler) Create(c echo.Context) error {
	var req CreateIssueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, ErrorResponse{Error: "required field(s) missing"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusOK, ErrorResponse{Error: "required field(s) missing"})
	}

	issue, err := h.tracker.CreateIssue(c.Request().Context(), c.Param("project"), domain.IssueInput{
		IssueTitle: req.IssueTitle,
		IssueText:  req.IssueText,
		CreatedBy:  req.CreatedBy,
		AssignedTo: req.AssignedTo,
		StatusText: req.StatusText,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRequiredFieldsMissing) {
			return c.JSON(http.StatusOK, ErrorResponse{Error: "required field(s) missing"})
		}
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// Update applies a partial update to one issue identified by _id.
func (h *IssueHandler) Update(c echo.Context) error {
	var req UpdateIssueRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	patch := domain.IssuePatch{
		IssueTitle: req.IssueTitle,
		IssueText:  req.IssueText,
		CreatedBy:  req.CreatedBy,
		AssignedTo: req.AssignedTo,
		StatusText: req.StatusText,
		Open:       req.Open,
	}

	err := h.tracker.UpdateIssue(c.Request().Context(), c.Param("project"), req.ID, patch)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, ResultResponse{Result: "successfully updated", ID: req.ID})
	case errors.Is(err, domain.ErrMissingID):
		return c.JSON(http.StatusOK, ErrorResponse{Error: "missing _id"})
	case errors.Is(err, domain.ErrNoUpdateFields):
		return c.JSON(http.StatusOK, ErrorResponse{Error: "no update field(s) sent", ID: req.ID})
	case errors.Is(err, domain.ErrIssueNotFound):
		return c.JSON(http.StatusOK, ErrorResponse{Error: "could not update", ID: req.ID})
	default:
		return err
	}
}

// Delete permanently removes one issue identified by _id.
func (h *IssueHandler) Delete(c echo.Context) error {
	var req DeleteIssueRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	err := h.tracker.DeleteIssue(c.Request().Context(), c.Param("project"), req.ID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, ResultResponse{Result: "successfully deleted", ID: req.ID})
	case errors.Is(err, domain.ErrMissingID):
		return c.JSON(http.StatusOK, ErrorResponse{Error: "missing _id"})
	case errors.Is(err, domain.ErrIssueNotFound):
		return c.JSON(http.StatusOK, ErrorResponse{Error: "could not delete", ID: req.ID})
	default:
		return err
	}
}
