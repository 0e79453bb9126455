// Package slug derives URL-safe post identifiers from titles.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Fallback is used when a title contains no usable characters.
const Fallback = "post"

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9 -]`)
	spaces       = regexp.MustCompile(`\s+`)
	hyphens      = regexp.MustCompile(`-+`)
)

// Slugify lowercases the title, drops everything outside [a-z0-9 -], turns
// whitespace runs into a single hyphen and trims hyphens from both ends.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = invalidChars.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns base, or base-1, base-2, ... for the first candidate that
// exists reports as free. The probe is not atomic; callers still have to
// handle a unique violation when persisting the result.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if base == "" {
		base = Fallback
	}
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
