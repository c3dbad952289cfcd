package common

import (
	"errors"
	"regexp"
	"strings"
)

// MaxSlugLength bounds generated workspace slugs.
const MaxSlugLength = 48

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a URL slug from input, falling back to fallback when input
// has no slug characters.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// SlugWithSuffix is Slugify with "-<suffix>" appended. The base is shortened
// so the result stays within MaxSlugLength.
func SlugWithSuffix(input, fallback, suffix string) (string, error) {
	base, err := Slugify(input, fallback)
	if err != nil {
		return "", err
	}
	suffix = slugify(suffix)
	if suffix == "" {
		return base, nil
	}
	if limit := MaxSlugLength - len(suffix) - 1; len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	return base + "-" + suffix, nil
}
