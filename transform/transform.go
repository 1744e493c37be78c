// Package transform implements the pure payload transform: normalize the
// elements of both lists, interleave them pairwise, and produce a single
// uppercase comma-joined string.
//
// The transform has no side effects and is deterministic: the cache core
// relies on both properties for idempotency.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/libintegration/cachingsvc/payload"
)

// MaxOutputLength caps the size of the joined output string.
const MaxOutputLength = 5_000_000

// ErrOutputTooLong is returned when the joined output exceeds MaxOutputLength.
var ErrOutputTooLong = errors.New("transform: output exceeds maximum allowed length")

// Func is the transform collaborator contract: pure, deterministic,
// no side effects. The controller treats it as a black box.
type Func func(p payload.Payload) (string, error)

// Interleave normalizes every element (trim plus internal whitespace
// collapse), interleaves list_1[i] before list_2[i], joins with ", ",
// and uppercases the result.
//
// Interleave assumes the payload already passed structural validation.
func Interleave(p payload.Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("transform: %w", err)
	}

	parts := make([]string, 0, 2*p.Len())
	for i := range p.List1 {
		parts = append(parts, collapseWhitespace(p.List1[i]), collapseWhitespace(p.List2[i]))
	}

	joined := strings.Join(parts, ", ")
	if len(joined) > MaxOutputLength {
		return "", ErrOutputTooLong
	}

	return strings.ToUpper(joined), nil
}

// collapseWhitespace trims the ends and folds runs of internal whitespace
// to a single space.
func collapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "\t\n\r") && !strings.Contains(s, "  ") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

// Ensure Interleave satisfies the collaborator contract
var _ Func = Interleave
