// Package shellquote renders argument vectors as POSIX shell command lines.
package shellquote

import (
	"errors"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrNullByte is returned for words that no shell can represent.
var ErrNullByte = errors.New("shell words cannot contain null bytes")

// Quote returns s quoted so that a POSIX shell expands it back to exactly s.
// Words without special characters are returned unchanged.
func Quote(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", ErrNullByte
	}

	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err == nil {
		return quoted, nil
	}

	// POSIX has no escapes for control characters such as newlines,
	// but a single-quoted word may contain them literally.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'", nil
}

// Join quotes every word of argv and joins them with spaces.
func Join(argv []string) (string, error) {
	words := make([]string, len(argv))
	for i, arg := range argv {
		q, err := Quote(arg)
		if err != nil {
			return "", err
		}
		words[i] = q
	}
	return strings.Join(words, " "), nil
}

// MustQuote is Quote for values known to be free of null bytes, such as file paths
// built by rig itself.
func MustQuote(s string) string {
	q, err := Quote(s)
	if err != nil {
		panic(err)
	}
	return q
}
