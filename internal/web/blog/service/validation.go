package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

const (
	// maxCategoryLength caps the length of blog categories.
	maxCategoryLength = 64
	// maxContentLength caps the length of blog content.
	maxContentLength = 200000
	// maxCommentTextLength caps the length of comment text.
	maxCommentTextLength = 5000
	// maxUserNameLength caps the length of user display names.
	maxUserNameLength = 64
	// maxUserEmailLength caps the length of user emails.
	maxUserEmailLength = 254
	// minUserPasswordLength is the shortest accepted password.
	minUserPasswordLength = 6
	// maxUserPasswordLength is the bcrypt input limit in bytes.
	maxUserPasswordLength = 72
)

var htmlSanitizer = bluemonday.UGCPolicy()

func invalidArgument(format string, args ...any) error {
	return model.NewUserError(model.ErrInvalidArgument, format, args...)
}

// sanitizeOptionalText trims input, checks for null bytes, enforces maxLen runes, and returns the sanitized value.
func sanitizeOptionalText(input string, maxLen int, field string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", invalidArgument("%s contains invalid null byte", field)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", invalidArgument("%s cannot exceed %d characters", field, maxLen)
	}
	return trimmed, nil
}

// sanitizeRequiredText is sanitizeOptionalText that rejects empty input.
func sanitizeRequiredText(input string, maxLen int, field string) (string, error) {
	trimmed, err := sanitizeOptionalText(input, maxLen, field)
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return "", invalidArgument("%s is required", field)
	}
	return trimmed, nil
}

func sanitizeTitle(title string) (string, error) {
	return sanitizeRequiredText(title, model.TitleMaxLen, "title")
}

// sanitizeContent strips unsafe html and checks the length of what remains.
func sanitizeContent(content string) (string, error) {
	trimmed, err := sanitizeRequiredText(content, maxContentLength, "content")
	if err != nil {
		return "", err
	}

	cleaned := strings.TrimSpace(htmlSanitizer.Sanitize(trimmed))
	if utf8.RuneCountInString(cleaned) < model.ContentMinLen {
		return "", invalidArgument("content too short (min %d characters)", model.ContentMinLen)
	}

	return cleaned, nil
}

func sanitizeCategory(category string) (string, error) {
	return sanitizeRequiredText(category, maxCategoryLength, "category")
}

func sanitizeCommentText(text string) (string, error) {
	trimmed, err := sanitizeOptionalText(text, maxCommentTextLength, "comment text")
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return "", invalidArgument("comment text is required and must be a non-empty string")
	}

	return trimmed, nil
}

// sanitizeEmail lower cases the address and checks it is a bare address.
func sanitizeEmail(email string) (string, error) {
	trimmed, err := sanitizeRequiredText(email, maxUserEmailLength, "email")
	if err != nil {
		return "", err
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", invalidArgument("invalid email")
	}

	return strings.ToLower(trimmed), nil
}

func sanitizePassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", invalidArgument("password is required")
	}
	if len(password) < minUserPasswordLength {
		return "", invalidArgument("password must have at least %d characters", minUserPasswordLength)
	}
	if len(password) > maxUserPasswordLength {
		return "", invalidArgument("password cannot exceed %d bytes", maxUserPasswordLength)
	}

	return password, nil
}
