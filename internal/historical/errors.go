package historical

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/oilprice/pkg/utils"
)

// ErrPaginationNotTerminated is matched by every *PaginationError.
var ErrPaginationNotTerminated = errors.New("pagination did not terminate")

// PaginationError reports a walk stopped by the page cap while the API
// still claimed more pages.
type PaginationError struct {
	Commodity string
	MaxPages  int
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination did not terminate: %s still had more pages after %d", e.Commodity, e.MaxPages)
}

func (e *PaginationError) Is(target error) bool {
	return target == ErrPaginationNotTerminated
}

// InvalidDateError reports a date bound that could not be parsed.
type InvalidDateError struct {
	Field string // "start" or "end"
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid %s date %q: expected one of %s", e.Field, e.Value, strings.Join(utils.DateLayouts, ", "))
}

// QueryError wraps a query rejected by validation.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return "invalid historical query: " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }
