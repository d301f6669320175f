package domain

import "errors"

var (
	ErrRequiredFieldsMissing = errors.New("required field(s) missing")
	ErrMissingID             = errors.New("missing _id")
	ErrNoUpdateFields        = errors.New("no update field(s) sent")
	ErrIssueNotFound         = errors.New("issue not found")
	ErrProjectNotFound       = errors.New("project not found")
)
