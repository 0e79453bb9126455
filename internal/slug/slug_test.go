package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":              "hello-world",
		"  Go   is   fun  ":          "go-is-fun",
		"already-a-slug":             "already-a-slug",
		"--Leading and trailing--":   "leading-and-trailing",
		"Multiple --- hyphens":       "multiple-hyphens",
		"Tabs\tand\nnewlines":        "tabsandnewlines",
		"Ünïcödé & symbols #2024":    "ncd-symbols-2024",
		"!!!":                        "",
		"Postgres 16: what's new?":   "postgres-16-whats-new",
		"UPPER case   - mixed - Dash": "upper-case-mixed-dash",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!", "  a  b  ", "x--y", "-a-", "Ünïcödé", "one two  three", "123 456", "",
		"Mixed_Under_scores and spaces", "a - - b",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "input %q", in)
	}
}

func TestUniqueAppendsSuffix(t *testing.T) {
	taken := map[string]bool{"my-title": true, "my-title-1": true}
	exists := func(_ context.Context, c string) (bool, error) { return taken[c], nil }

	got, err := Unique(context.Background(), "my-title", exists)
	require.NoError(t, err)
	assert.Equal(t, "my-title-2", got)

	got, err = Unique(context.Background(), "fresh", exists)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestUniqueEmptyBaseUsesFallback(t *testing.T) {
	got, err := Unique(context.Background(), "", func(context.Context, string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, Fallback, got)
}

func TestUniquePropagatesProbeError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestUniqueStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Unique(ctx, "x", func(context.Context, string) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
