package services

import (
	"errors"
	"strings"
)

// Sentinel errors for the non-validation failure kinds callers must
// distinguish.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrPermission = errors.New("you don't have permission to perform this action")
	ErrConflict   = errors.New("the submission was changed by another user, please reload and try again")
)

// ValidationError carries per-field complaints. No mutation has happened
// when one is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
