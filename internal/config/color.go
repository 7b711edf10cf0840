package config

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Именованные цвета для -b/-B; всё остальное считается hex-записью.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"gray":    "#808080",
	"grey":    "#808080",
}

// ParseColor resolves a -b/-B color specification. The empty string
// means "not configured".
func ParseColor(spec string) (color.RGBA, bool) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" {
		return color.RGBA{}, false
	}

	if hex, ok := namedColors[spec]; ok {
		spec = hex
	}
	if !strings.HasPrefix(spec, "#") {
		spec = "#" + spec
	}

	c, err := colorful.Hex(spec)
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}
