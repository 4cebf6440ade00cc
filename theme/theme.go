// Package theme resolves color tokens and spacing scale values against a
// Theme's token map. Theme presets are independent constants that reduce
// to the legacy flat map via Coerce, so renderer code stays token-path
// agnostic.
package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wwsheng009/tuirun/style"
)

// Theme is the resolved token map plus the spacing scale.
type Theme struct {
	Colors  map[string]style.RGB
	Spacing [7]int // 0, xs, sm, md, lg, xl, 2xl
}

// Default spacing scale, in cells.
var defaultSpacing = [7]int{0, 1, 2, 4, 6, 8, 12}

// legacyFgAlias is the fallback token used when a requested path isn't found.
const legacyFgAlias = "fg"

// New builds a Theme from a flat color map, filling in the default spacing
// scale.
func New(colors map[string]style.RGB) Theme {
	return Theme{Colors: colors, Spacing: defaultSpacing}
}

// ResolveColor accepts a direct RGB, a dot-path token (e.g. "fg.primary"),
// or a hex literal ("#rgb" / "#rrggbb"). Unknown tokens fall back to the
// legacy "fg" alias; if that is also absent, black is returned.
func ResolveColor(t Theme, value interface{}) style.RGB {
	switch v := value.(type) {
	case style.RGB:
		return v
	case string:
		if strings.HasPrefix(v, "#") {
			if rgb, ok := parseHex(v); ok {
				return rgb
			}
			return fallback(t)
		}
		if rgb, ok := t.Colors[v]; ok {
			return rgb
		}
		// dot-path lookups with no exact map entry still try direct match
		// above; nothing else to narrow, so fall through to legacy alias.
		return fallback(t)
	default:
		return fallback(t)
	}
}

func fallback(t Theme) style.RGB {
	if rgb, ok := t.Colors[legacyFgAlias]; ok {
		return rgb
	}
	return style.RGB{}
}

func parseHex(v string) (style.RGB, bool) {
	s := strings.TrimPrefix(v, "#")
	switch len(s) {
	case 3:
		r, err1 := strconv.ParseUint(string([]byte{s[0], s[0]}), 16, 8)
		g, err2 := strconv.ParseUint(string([]byte{s[1], s[1]}), 16, 8)
		b, err3 := strconv.ParseUint(string([]byte{s[2], s[2]}), 16, 8)
		if err1 != nil || err2 != nil || err3 != nil {
			return style.RGB{}, false
		}
		return style.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, true
	case 6:
		r, err1 := strconv.ParseUint(s[0:2], 16, 8)
		g, err2 := strconv.ParseUint(s[2:4], 16, 8)
		b, err3 := strconv.ParseUint(s[4:6], 16, 8)
		if err1 != nil || err2 != nil || err3 != nil {
			return style.RGB{}, false
		}
		return style.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, true
	default:
		return style.RGB{}, false
	}
}

// ResolveSpacing indexes the scale when n is a small non-negative integer
// (0..6); anything else is treated as a literal cell count.
func ResolveSpacing(t Theme, n int) int {
	if n >= 0 && n < len(t.Spacing) {
		return t.Spacing[n]
	}
	return n
}

// Coerce reduces a preset (any map-shaped source) to the legacy flat
// map representation theme code consumes, so renderer code never needs to
// know which preset produced a Theme.
func Coerce(colors map[string]style.RGB) Theme {
	out := make(map[string]style.RGB, len(colors))
	for k, v := range colors {
		out[k] = v
	}
	return New(out)
}

var (
	// Dark is the default dark preset.
	Dark = Coerce(map[string]style.RGB{
		"fg":              {230, 230, 230},
		"bg":              {20, 20, 24},
		"fg.primary":      {240, 240, 240},
		"fg.muted":        {150, 150, 150},
		"accent":          {97, 175, 239},
		"accent.secondary": {198, 120, 221},
		"success":         {152, 195, 121},
		"warning":         {229, 192, 123},
		"danger":          {224, 108, 117},
	})

	// Light is a bright preset.
	Light = Coerce(map[string]style.RGB{
		"fg":              {30, 30, 30},
		"bg":              {250, 250, 250},
		"fg.primary":      {10, 10, 10},
		"fg.muted":        {110, 110, 110},
		"accent":          {0, 92, 197},
		"accent.secondary": {130, 40, 160},
		"success":         {40, 120, 40},
		"warning":         {160, 110, 0},
		"danger":          {170, 30, 30},
	})

	// Dimmed is a low-contrast dark preset.
	Dimmed = Coerce(map[string]style.RGB{
		"fg":         {170, 170, 170},
		"bg":         {24, 24, 24},
		"fg.primary": {190, 190, 190},
		"fg.muted":   {110, 110, 110},
		"accent":     {90, 130, 160},
	})

	// HighContrast maximizes fg/bg separation for accessibility.
	HighContrast = Coerce(map[string]style.RGB{
		"fg":     {255, 255, 255},
		"bg":     {0, 0, 0},
		"accent": {255, 255, 0},
		"danger": {255, 0, 0},
	})

	// Nord is the Nord color scheme.
	Nord = Coerce(map[string]style.RGB{
		"fg":      {216, 222, 233},
		"bg":      {46, 52, 64},
		"accent":  {136, 192, 208},
		"success": {163, 190, 140},
		"warning": {235, 203, 139},
		"danger":  {191, 97, 106},
	})

	// Dracula is the Dracula color scheme.
	Dracula = Coerce(map[string]style.RGB{
		"fg":      {248, 248, 242},
		"bg":      {40, 42, 54},
		"accent":  {189, 147, 249},
		"success": {80, 250, 123},
		"warning": {241, 250, 140},
		"danger":  {255, 85, 85},
	})
)

// Named looks a preset up by name, for config-driven theme selection.
func Named(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "dark":
		return Dark, nil
	case "light":
		return Light, nil
	case "dimmed":
		return Dimmed, nil
	case "high-contrast", "highcontrast":
		return HighContrast, nil
	case "nord":
		return Nord, nil
	case "dracula":
		return Dracula, nil
	default:
		return Theme{}, fmt.Errorf("theme: unknown preset %q", name)
	}
}
