package sticky

import (
	"regexp"
	"strings"
)

// DefaultColor is used whenever the submitted color is empty or malformed.
const DefaultColor = "#5865F2"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NormalizeColor validates a hex color input. A missing # prefix is added
// before validation; anything that still isn't a #-prefixed 6-hex-digit
// value falls back to DefaultColor.
func NormalizeColor(input string) string {
	c := strings.TrimSpace(input)
	if c == "" {
		return DefaultColor
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if !hexColor.MatchString(c) {
		return DefaultColor
	}
	return c
}
