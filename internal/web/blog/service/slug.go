package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugInvalidRunes matches runs of anything but lowercase ascii letters and digits
	slugInvalidRunes = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify converts a title to a url friendly slug.
//
// The result only depends on title: accents are dropped, non latin
// scripts are transliterated, everything else collapses into single hyphens.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, title)
	if err != nil {
		result = title
	}

	result = strings.ToLower(unidecode.Unidecode(result))
	result = slugInvalidRunes.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
