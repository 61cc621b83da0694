package wallet

import (
	"errors"
	"fmt"
)

// ErrPageCount is returned when a requested page count falls outside [MinPages, MaxPages].
// The cycle is rejected before any fetch is attempted.
var ErrPageCount = fmt.Errorf("page count must be between %d and %d", MinPages, MaxPages)

// FetchError tags a failed page download. The cycle skips the page and continues.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a per-page fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
