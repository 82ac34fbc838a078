package config

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify maps display text to a lowercase, hyphen-separated identifier.
//
//	"Geode 0!"                  -> "geode-0"
//	"  multi   space--name "    -> "multi-space-name"
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NewMachineID derives an id from a display name. Names with nothing
// sluggable (e.g. "!!!") get a random "machine-xxxxxxxx" id instead.
func NewMachineID(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return "machine-" + uuid.NewString()[:8]
}
