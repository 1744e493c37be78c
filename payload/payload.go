package payload

import (
	"errors"
	"fmt"
)

// MaxItems is the maximum number of elements allowed per list.
const MaxItems = 100_000

// MaxItemLength is the maximum length in bytes of a single element.
const MaxItemLength = 8_192

// Sentinel errors for payload validation.
var (
	ErrNilList        = errors.New("payload: list_1 and list_2 are required")
	ErrLengthMismatch = errors.New("payload: list_1 and list_2 must be of the same length")
	ErrTooManyItems   = errors.New("payload: list exceeds maximum allowed items")
	ErrItemTooLong    = errors.New("payload: list element exceeds maximum allowed length")
)

// Payload is a pair of ordered, equal-length string lists. It is
// request-scoped and treated as immutable once constructed.
type Payload struct {
	List1 []string `json:"list_1"`
	List2 []string `json:"list_2"`
}

// Validate checks the structural invariants: both lists present, equal
// length, and within size limits. Element content is not inspected here;
// null-element rejection happens at the transport boundary where the raw
// JSON is still visible.
func (p Payload) Validate() error {
	if p.List1 == nil || p.List2 == nil {
		return ErrNilList
	}
	if len(p.List1) != len(p.List2) {
		return fmt.Errorf("%w: got %d and %d", ErrLengthMismatch, len(p.List1), len(p.List2))
	}
	if len(p.List1) > MaxItems || len(p.List2) > MaxItems {
		return fmt.Errorf("%w (%d)", ErrTooManyItems, MaxItems)
	}
	for i, s := range p.List1 {
		if len(s) > MaxItemLength {
			return fmt.Errorf("%w: list_1[%d]", ErrItemTooLong, i)
		}
	}
	for i, s := range p.List2 {
		if len(s) > MaxItemLength {
			return fmt.Errorf("%w: list_2[%d]", ErrItemTooLong, i)
		}
	}
	return nil
}

// Len returns the number of element pairs.
func (p Payload) Len() int {
	return len(p.List1)
}
