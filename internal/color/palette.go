// Package color provides the tag color palette.
package color

import (
	"math/rand/v2"
	"regexp"
)

// DefaultTag is the color given to tags created without one.
const DefaultTag = "#3b82f6"

// Palette holds the colors auto-created tags are drawn from.
var Palette = []string{
	"#3b82f6", // blue
	"#ef4444", // red
	"#10b981", // emerald
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#06b6d4", // cyan
	"#84cc16", // lime
}

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// Random returns a palette color chosen uniformly at random.
func Random() string {
	return Palette[rand.IntN(len(Palette))]
}

// IsHex reports whether s is a #RGB or #RRGGBB color.
func IsHex(s string) bool {
	return hexColor.MatchString(s)
}
