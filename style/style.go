// Package style implements the resolved text style model: immutable
// ResolvedStyle values, a merge with copy-on-write semantics, a small
// fast-path cache for the hot merge case, and opacity blending.
package style

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// RGB is a plain 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Lipgloss converts an RGB to a lipgloss.Color for the render boundary.
func (c RGB) Lipgloss() lipgloss.Color {
	return lipgloss.Color(hex(c))
}

func hex(c RGB) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 7)
	b[0] = '#'
	put := func(i int, v uint8) {
		b[i] = digits[v>>4]
		b[i+1] = digits[v&0xf]
	}
	put(1, c.R)
	put(3, c.G)
	put(5, c.B)
	return string(b)
}

// UnderlineStyle enumerates the supported underline decorations.
type UnderlineStyle int

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// TriState represents an optional boolean attribute: unset, false, or true.
type TriState uint8

const (
	Unset TriState = iota
	False
	True
)

// Bool converts the tri-state to a plain bool, treating Unset as false.
func (t TriState) Bool() bool { return t == True }

// ResolvedStyle is the fully resolved text style. Fg/Bg are always defined.
type ResolvedStyle struct {
	Fg, Bg          RGB
	Bold            TriState
	Dim             TriState
	Italic          TriState
	Underline       TriState
	Inverse         TriState
	Strikethrough   TriState
	Overline        TriState
	Blink           TriState
	UnderlineStyle  UnderlineStyle
	UnderlineColor  RGB
	HasUnderlineCol bool
}

// Override carries only the fields a widget wants to change; nil/Unset
// fields mean "inherit from base".
type Override struct {
	Fg, Bg          *RGB
	Bold            TriState
	Dim             TriState
	Italic          TriState
	Underline       TriState
	Inverse         TriState
	Strikethrough   TriState
	Overline        TriState
	Blink           TriState
	UnderlineStyle  *UnderlineStyle
	UnderlineColor  *RGB
}

// IsEmpty reports whether the override changes nothing relative to any base.
func (o Override) IsEmpty() bool {
	return o.Fg == nil && o.Bg == nil &&
		o.Bold == Unset && o.Dim == Unset && o.Italic == Unset &&
		o.Underline == Unset && o.Inverse == Unset &&
		o.Strikethrough == Unset && o.Overline == Unset && o.Blink == Unset &&
		o.UnderlineStyle == nil && o.UnderlineColor == nil
}

// boolAttrKey packs the 8 tri-state boolean attrs of an override into a
// 16-bit key, 2 bits each. Used only when the override carries no color change, matching spec.md's
// "16-bit encoding of tri-state boolean attrs" cache key.
func boolAttrKey(o Override) uint16 {
	var k uint16
	pack := func(shift int, t TriState) {
		k |= uint16(t&0x3) << shift
	}
	pack(0, o.Bold)
	pack(2, o.Dim)
	pack(4, o.Italic)
	pack(6, o.Underline)
	pack(8, o.Inverse)
	pack(10, o.Strikethrough)
	pack(12, o.Overline)
	pack(14, o.Blink)
	return k
}

type cacheKey struct {
	base ResolvedStyle
	bits uint16
}

var (
	mergeCacheMu sync.Mutex
	mergeCache   = make(map[cacheKey]ResolvedStyle, 256)
)

// Merge returns base unchanged when override changes nothing, otherwise a
// new ResolvedStyle. When override carries no color change, the result is
// served from (and stored in) a small process-wide cache keyed on the
// whole base style plus the override's packed boolean bits, to deduplicate
// the hot path in large lists.
func Merge(base ResolvedStyle, override Override) ResolvedStyle {
	if override.IsEmpty() {
		return base
	}

	if override.Fg == nil && override.Bg == nil && override.UnderlineStyle == nil && override.UnderlineColor == nil {
		key := cacheKey{base: base, bits: boolAttrKey(override)}
		mergeCacheMu.Lock()
		if cached, ok := mergeCache[key]; ok {
			mergeCacheMu.Unlock()
			return cached
		}
		mergeCacheMu.Unlock()

		result := mergeFields(base, override)

		mergeCacheMu.Lock()
		if len(mergeCache) > 4096 {
			mergeCache = make(map[cacheKey]ResolvedStyle, 256)
		}
		mergeCache[key] = result
		mergeCacheMu.Unlock()
		return result
	}

	return mergeFields(base, override)
}

func mergeFields(base ResolvedStyle, override Override) ResolvedStyle {
	out := base
	if override.Fg != nil {
		out.Fg = *override.Fg
	}
	if override.Bg != nil {
		out.Bg = *override.Bg
	}
	if override.Bold != Unset {
		out.Bold = override.Bold
	}
	if override.Dim != Unset {
		out.Dim = override.Dim
	}
	if override.Italic != Unset {
		out.Italic = override.Italic
	}
	if override.Underline != Unset {
		out.Underline = override.Underline
	}
	if override.Inverse != Unset {
		out.Inverse = override.Inverse
	}
	if override.Strikethrough != Unset {
		out.Strikethrough = override.Strikethrough
	}
	if override.Overline != Unset {
		out.Overline = override.Overline
	}
	if override.Blink != Unset {
		out.Blink = override.Blink
	}
	if override.UnderlineStyle != nil {
		out.UnderlineStyle = *override.UnderlineStyle
	}
	if override.UnderlineColor != nil {
		out.UnderlineColor = *override.UnderlineColor
		out.HasUnderlineCol = true
	}
	return out
}

// blendChannel integer-rounds base+backdrop blended by a in [0,1] so
// identical inputs always produce byte-identical outputs.
func blendChannel(fg, backdrop uint8, a float64) uint8 {
	v := float64(backdrop) + (float64(fg)-float64(backdrop))*a
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// ApplyOpacity blends fg and bg toward backdrop (or s.Bg when backdrop is
// nil). a>=1 returns s unchanged (identity); a<=0 collapses fully to the
// backdrop color. Boolean attributes are preserved.
func ApplyOpacity(s ResolvedStyle, a float64, backdrop *RGB) ResolvedStyle {
	if a >= 1 {
		return s
	}
	bd := s.Bg
	if backdrop != nil {
		bd = *backdrop
	}
	if a <= 0 {
		out := s
		out.Fg = bd
		out.Bg = bd
		return out
	}
	out := s
	out.Fg = RGB{
		R: blendChannel(s.Fg.R, bd.R, a),
		G: blendChannel(s.Fg.G, bd.G, a),
		B: blendChannel(s.Fg.B, bd.B, a),
	}
	out.Bg = RGB{
		R: blendChannel(s.Bg.R, bd.R, a),
		G: blendChannel(s.Bg.G, bd.G, a),
		B: blendChannel(s.Bg.B, bd.B, a),
	}
	return out
}

// Lipgloss converts a ResolvedStyle to a lipgloss.Style for the render
// boundary (terminal engines that consume ANSI rather than raw drawlist
// bytes go through this conversion).
func (s ResolvedStyle) Lipgloss() lipgloss.Style {
	out := lipgloss.NewStyle().Foreground(s.Fg.Lipgloss()).Background(s.Bg.Lipgloss())
	if s.Bold.Bool() {
		out = out.Bold(true)
	}
	if s.Dim.Bool() {
		out = out.Faint(true)
	}
	if s.Italic.Bool() {
		out = out.Italic(true)
	}
	if s.Underline.Bool() {
		out = out.Underline(true)
	}
	if s.Inverse.Bool() {
		out = out.Reverse(true)
	}
	if s.Strikethrough.Bool() {
		out = out.Strikethrough(true)
	}
	if s.Blink.Bool() {
		out = out.Blink(true)
	}
	return out
}
