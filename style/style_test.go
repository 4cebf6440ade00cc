package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeIdentityWhenEmpty(t *testing.T) {
	base := ResolvedStyle{Fg: RGB{1, 2, 3}, Bg: RGB{4, 5, 6}, Bold: True}
	out := Merge(base, Override{})
	assert.Equal(t, base, out)
}

func TestMergeOverridesOnlyNamedFields(t *testing.T) {
	base := ResolvedStyle{Fg: RGB{1, 1, 1}, Bg: RGB{2, 2, 2}, Bold: True}
	fg := RGB{9, 9, 9}
	out := Merge(base, Override{Fg: &fg, Dim: True})
	require.Equal(t, fg, out.Fg)
	assert.Equal(t, base.Bg, out.Bg)
	assert.Equal(t, True, out.Bold, "unset fields must be inherited")
	assert.Equal(t, True, out.Dim)
}

func TestMergeFastPathCacheConsistent(t *testing.T) {
	base := ResolvedStyle{Fg: RGB{10, 20, 30}, Bg: RGB{40, 50, 60}}
	o := Override{Bold: True, Italic: True}
	a := Merge(base, o)
	b := Merge(base, o)
	assert.Equal(t, a, b)
}

func TestApplyOpacityIdentityAtOne(t *testing.T) {
	s := ResolvedStyle{Fg: RGB{10, 20, 30}, Bg: RGB{1, 2, 3}}
	out := ApplyOpacity(s, 1, nil)
	assert.Equal(t, s, out)
}

func TestApplyOpacityCollapsesAtZero(t *testing.T) {
	s := ResolvedStyle{Fg: RGB{10, 20, 30}, Bg: RGB{1, 2, 3}}
	backdrop := RGB{100, 100, 100}
	out := ApplyOpacity(s, 0, &backdrop)
	assert.Equal(t, backdrop, out.Fg)
	assert.Equal(t, backdrop, out.Bg)
}

func TestApplyOpacityDeterministic(t *testing.T) {
	s := ResolvedStyle{Fg: RGB{200, 10, 50}, Bg: RGB{0, 0, 0}}
	backdrop := RGB{30, 30, 30}
	a := ApplyOpacity(s, 0.5, &backdrop)
	b := ApplyOpacity(s, 0.5, &backdrop)
	assert.Equal(t, a, b)
}

func TestApplyOpacityPreservesBooleanAttrs(t *testing.T) {
	s := ResolvedStyle{Fg: RGB{1, 1, 1}, Bg: RGB{2, 2, 2}, Bold: True, Underline: True}
	out := ApplyOpacity(s, 0.3, nil)
	assert.Equal(t, True, out.Bold)
	assert.Equal(t, True, out.Underline)
}
