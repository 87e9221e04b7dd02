package courses

import (
	"regexp"
	"strings"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
	validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// MakeSlug generates a URL-safe slug from a title.
// Example: "Intro to Go!" -> "intro-to-go"
func MakeSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	base = strings.ReplaceAll(base, "_", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	return base
}

func ValidSlug(s string) bool {
	return len(s) <= 200 && validSlug.MatchString(s)
}

// Course slugs share a path segment with these static routes under /courses.
var reservedCourseSlugs = map[string]bool{
	"mine":    true,
	"create":  true,
	"module":  true,
	"content": true,
}

func ReservedCourseSlug(s string) bool {
	return reservedCourseSlugs[s]
}
