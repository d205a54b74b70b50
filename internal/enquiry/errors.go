package enquiry

import "errors"

var (
	ErrMissingOrgID       = errors.New("enquiry: org id is required")
	ErrMissingClientName  = errors.New("enquiry: client name is required")
	ErrMissingClientEmail = errors.New("enquiry: client email is required")
	ErrNotFound           = errors.New("enquiry: not found")
	ErrInvalidTransition  = errors.New("enquiry: status transition not allowed")
)
