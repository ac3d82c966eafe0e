package service

import (
	"errors"
	"sort"
	"strings"

	"invoicedesk/internal/draft"
)

var (
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrCompanyNotFound        = errors.New("company not found")
	ErrCompanyAccessDenied    = errors.New("no access to this company")
	ErrCompanyExists          = errors.New("a company with this NIP already exists")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already used by this company")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailTaken             = errors.New("email already exists")
	ErrInvalidID              = errors.New("invalid id")
	ErrInvalidPeriod          = errors.New("period must be in format YYYY-MM")
)

// ValidationFailedError carries the field errors of a rejected draft.
type ValidationFailedError struct {
	Errors draft.ErrorMap
}

func (e *ValidationFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, path := range e.Errors.Paths() {
		parts = append(parts, path+": "+e.Errors[path])
	}
	sort.Strings(parts)
	return "invoice validation failed: " + strings.Join(parts, "; ")
}
