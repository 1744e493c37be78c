package transform

import (
	"errors"
	"testing"

	"github.com/libintegration/cachingsvc/payload"
)

func TestInterleave(t *testing.T) {
	tests := []struct {
		name    string
		p       payload.Payload
		want    string
		wantErr error
	}{
		{
			"reference scenario",
			payload.Payload{
				List1: []string{"first string", "second string"},
				List2: []string{"other string", "another string"},
			},
			"FIRST STRING, OTHER STRING, SECOND STRING, ANOTHER STRING",
			nil,
		},
		{
			"three pairs",
			payload.Payload{
				List1: []string{"first string", "second string", "third string"},
				List2: []string{"other string", "another string", "last string"},
			},
			"FIRST STRING, OTHER STRING, SECOND STRING, ANOTHER STRING, THIRD STRING, LAST STRING",
			nil,
		},
		{
			"empty lists",
			payload.Payload{List1: []string{}, List2: []string{}},
			"",
			nil,
		},
		{
			"whitespace is normalized",
			payload.Payload{
				List1: []string{"  first \t string  "},
				List2: []string{"other\n\nstring"},
			},
			"FIRST STRING, OTHER STRING",
			nil,
		},
		{
			"unequal lengths rejected",
			payload.Payload{List1: []string{"a"}, List2: []string{"b", "c"}},
			"",
			payload.ErrLengthMismatch,
		},
		{
			"nil lists rejected",
			payload.Payload{},
			"",
			payload.ErrNilList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interleave(tt.p)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Interleave() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Interleave() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Interleave() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterleave_Deterministic(t *testing.T) {
	p := payload.Payload{
		List1: []string{"first string", "second string"},
		List2: []string{"other string", "another string"},
	}

	first, err := Interleave(p)
	if err != nil {
		t.Fatalf("Interleave() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		got, err := Interleave(p)
		if err != nil {
			t.Fatalf("iteration %d: Interleave() error = %v", i, err)
		}
		if got != first {
			t.Fatalf("iteration %d: Interleave() = %q, want %q", i, got, first)
		}
	}
}

func TestInterleave_DoesNotMutateInput(t *testing.T) {
	p := payload.Payload{
		List1: []string{"  a  "},
		List2: []string{"b"},
	}

	if _, err := Interleave(p); err != nil {
		t.Fatalf("Interleave() error = %v", err)
	}

	if p.List1[0] != "  a  " {
		t.Errorf("input list was mutated: %q", p.List1[0])
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "abc", "abc"},
		{"leading and trailing", "  abc  ", "abc"},
		{"internal runs", "a   b", "a b"},
		{"tabs and newlines", "a\tb\nc", "a b c"},
		{"only whitespace", " \t\n ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseWhitespace(tt.in); got != tt.want {
				t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
