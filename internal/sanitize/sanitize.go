// Package sanitize cleans text that arrives from clients and agents before it
// reaches a scene, a wire command or a log line.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxSize bounds identifiers and colors.
	DefaultMaxSize = 256
	// EnvMaxSize is the environment variable to override the default.
	EnvMaxSize = "THREEVIEW_MAX_INPUT_SIZE"
)

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
	ErrEmpty       = errors.New("input is empty")
)

// Text enforces the size limit, validates UTF-8, strips control characters
// and surrounding whitespace. Empty results are rejected.
func Text(input string) (string, error) {
	limit := maxSize()
	if len(input) > limit {
		// Rejected rather than truncated: a truncated id could name another object.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	out := input
	if strings.IndexFunc(input, unicode.IsControl) >= 0 {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
		out = b.String()
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmpty
	}
	return out, nil
}

func maxSize() int {
	if val := os.Getenv(EnvMaxSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxSize
}
