package domain

import "errors"

// Error kinds surfaced to API callers. Handlers wrap them with
// fmt.Errorf("%w: ...") so errors.Is keeps working.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMalformedID      = errors.New("malformed id")
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation failed")
	ErrStore            = errors.New("store failure")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthenticated, "UNAUTHENTICATED"},
	{ErrPermissionDenied, "PERMISSION_DENIED"},
	{ErrMalformedID, "MALFORMED_ID"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrInvalidReference, "INVALID_REFERENCE"},
	{ErrValidation, "VALIDATION_ERROR"},
	{ErrStore, "STORE_ERROR"},
}

// Code returns the machine readable code for err. Unknown errors are
// reported as STORE_ERROR since only the store can produce them.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "STORE_ERROR"
}
