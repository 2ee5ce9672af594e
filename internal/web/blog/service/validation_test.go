package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

func TestSanitizeContent(t *testing.T) {
	got, err := sanitizeContent(`<script>alert(1)</script>` + testContent())
	require.NoError(t, err)
	require.NotContains(t, got, "script")
	require.Contains(t, got, "<p>lorem ipsum")

	_, err = sanitizeContent("<p>short</p>")
	requireKind(t, err, model.ErrInvalidArgument)

	// markup does not count towards the minimum length
	_, err = sanitizeContent("<script>" + strings.Repeat("x", 300) + "</script>")
	requireKind(t, err, model.ErrInvalidArgument)
}

func TestSanitizeTitle(t *testing.T) {
	got, err := sanitizeTitle("  hello  ")
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	_, err = sanitizeTitle(strings.Repeat("标", model.TitleMaxLen))
	require.NoError(t, err)

	_, err = sanitizeTitle(strings.Repeat("标", model.TitleMaxLen+1))
	requireKind(t, err, model.ErrInvalidArgument)

	_, err = sanitizeTitle("   ")
	requireKind(t, err, model.ErrInvalidArgument)

	_, err = sanitizeTitle("a\x00b")
	requireKind(t, err, model.ErrInvalidArgument)
}

func TestSanitizeEmail(t *testing.T) {
	got, err := sanitizeEmail(" Alice@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got)

	for _, email := range []string{"", "alice", "Alice <alice@example.com>", "a@"} {
		_, err = sanitizeEmail(email)
		requireKind(t, err, model.ErrInvalidArgument)
	}
}

func TestSanitizePassword(t *testing.T) {
	_, err := sanitizePassword("123456")
	require.NoError(t, err)

	for _, pwd := range []string{"", "      ", "12345", strings.Repeat("x", maxUserPasswordLength+1)} {
		_, err = sanitizePassword(pwd)
		requireKind(t, err, model.ErrInvalidArgument)
	}
}

func TestSanitizeCommentText(t *testing.T) {
	got, err := sanitizeCommentText("  nice post \n")
	require.NoError(t, err)
	require.Equal(t, "nice post", got)

	_, err = sanitizeCommentText(" \t ")
	requireKind(t, err, model.ErrInvalidArgument)
}
