package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ResultResponse reports a successful mutation on a single issue.
type ResultResponse struct {
	Result string `json:"result"`
	ID     string `json:"_id"`
}

// ErrorResponse is the flat error body used across the API. The _id echo is
// omitted where the identifier itself was the problem.
type ErrorResponse struct {
	Error string `json:"error"`
	ID    string `json:"_id,omitempty"`
}

// HTTPErrorHandler renders transport-level and storage failures. Expected
// domain outcomes never reach here; handlers render those themselves with a
// 200 status, matching the original API contract.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal server error"

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		status = echoErr.Code
		if m, ok := echoErr.Message.(string); ok && m != "" {
			msg = m
		} else {
			msg = http.StatusText(echoErr.Code)
		}
	} else {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	if jsonErr := c.JSON(status, ErrorResponse{Error: msg}); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}
