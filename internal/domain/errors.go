package domain

import "errors"

// Domain errors
var (
	ErrBookNotResolved = errors.New("book not resolved")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrPopupBlocked    = errors.New("authorization popup blocked")
	ErrFlowSuperseded  = errors.New("authorization flow superseded")
	ErrFlowCancelled   = errors.New("authorization flow cancelled")
	ErrUnknownFlow     = errors.New("unknown authorization flow")
	ErrNoFragment      = errors.New("popup has no fragment yet")
	ErrMissingLocation = errors.New("response has no location")
	ErrInvalidRanges   = errors.New("invalid selection ranges")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
