package text

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"trims whitespace", "  hello  ", "hello"},
		{"crlf to lf", "line one\r\nline two", "line one\nline two"},
		{"bare cr to lf", "line one\rline two", "line one\nline two"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\r\n"} {
		_, err := Normalize(in)
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("Normalize(%q): got %v, want ErrEmptyText", in, err)
		}
	}
}
