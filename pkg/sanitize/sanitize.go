// Package sanitize cleans free text before it enters a document.
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
	// DefaultMaxTextSize bounds a single text field.
	DefaultMaxTextSize = 16 * 1024
	// EnvMaxTextSize overrides DefaultMaxTextSize.
	EnvMaxTextSize = "VITAE_MAX_TEXT_SIZE"
)

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// Text enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized text is rejected, never truncated.
func Text(input string) (string, error) {
	limit := maxTextSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTextTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// Value sanitizes every string inside a decoded JSON value, returning a
// cleaned copy. Non-string leaves pass through.
func Value(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return Text(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			clean, err := Value(child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			clean, err := Value(child)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxTextSize() int {
	if val := os.Getenv(EnvMaxTextSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTextSize
}
