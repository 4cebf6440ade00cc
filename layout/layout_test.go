package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/vnode"
)

func TestRowDistributesChildrenAlongMainAxis(t *testing.T) {
	root := &instance.Instance{
		ID: 1, Kind: vnode.Row,
		Children: []*instance.Instance{
			{ID: 2, Kind: vnode.Button, Props: vnode.Props{"width": 5}},
			{ID: 3, Kind: vnode.Button, Props: vnode.Props{"width": 5}},
		},
	}
	tree, err := Layout(root, 0, 0, 40, 10, AxisColumn)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, 0, tree.Children[0].Rect.X)
	assert.Equal(t, 5, tree.Children[1].Rect.X)
}

func TestGapOnlyAppliesBetweenContributingChildren(t *testing.T) {
	root := &instance.Instance{
		ID: 1, Kind: vnode.Row, Props: vnode.Props{"gap": 2},
		Children: []*instance.Instance{
			{ID: 2, Kind: vnode.Button, Props: vnode.Props{"width": 5}},
			{ID: 3, Kind: vnode.Spacer},
			{ID: 4, Kind: vnode.Button, Props: vnode.Props{"width": 5}},
		},
	}
	tree, err := Layout(root, 0, 0, 40, 10, AxisColumn)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Children[0].Rect.X)
	assert.Equal(t, 7, tree.Children[2].Rect.X, "spacer contributes nothing so no extra gap slot")
}

func TestPercentAndFullWidth(t *testing.T) {
	root := &instance.Instance{
		ID: 1, Kind: vnode.Box,
		Children: []*instance.Instance{
			{ID: 2, Kind: vnode.Button, Props: vnode.Props{"width": "50%"}},
		},
	}
	tree, err := Layout(root, 0, 0, 20, 5, AxisColumn)
	require.NoError(t, err)
	assert.Equal(t, 10, tree.Children[0].Rect.W)
}

func TestInvalidPercentIsFatal(t *testing.T) {
	root := &instance.Instance{
		Kind: vnode.Box,
		Children: []*instance.Instance{
			{Kind: vnode.Button, Props: vnode.Props{"width": "abc%"}},
		},
	}
	_, err := Layout(root, 0, 0, 20, 5, AxisColumn)
	require.Error(t, err)
	fatal, ok := err.(*Fatal)
	require.True(t, ok)
	assert.Equal(t, FatalInvalidProps, fatal.Code)
}

func TestInvalidPositionIsFatal(t *testing.T) {
	root := &instance.Instance{
		Kind: vnode.Box,
		Children: []*instance.Instance{
			{Kind: vnode.Button, Props: vnode.Props{"position": "absoulte"}},
		},
	}
	_, err := Layout(root, 0, 0, 20, 5, AxisColumn)
	require.Error(t, err)
	fatal, ok := err.(*Fatal)
	require.True(t, ok)
	assert.Equal(t, FatalInvalidProps, fatal.Code)
}

func TestAbsoluteChildResolvesFromOffsetsAndStretches(t *testing.T) {
	root := &instance.Instance{
		Kind: vnode.Box,
		Children: []*instance.Instance{
			{Kind: vnode.Badge, Props: vnode.Props{
				"position": "absolute", "top": 1, "bottom": 1, "left": 2,
			}},
		},
	}
	tree, err := Layout(root, 0, 0, 20, 10, AxisColumn)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	child := tree.Children[0]
	assert.Equal(t, 2, child.Rect.X)
	assert.Equal(t, 1, child.Rect.Y)
	assert.Equal(t, 8, child.Rect.H, "top+bottom without explicit height stretches across")
}

func TestOverflowScrollClampsAndShiftsChildren(t *testing.T) {
	root := &instance.Instance{
		Kind: vnode.Box, Props: vnode.Props{"overflow": "scroll", "scrollY": 100},
		Children: []*instance.Instance{
			{Kind: vnode.Text, Text: "one line of content here"},
		},
	}
	tree, err := Layout(root, 0, 0, 10, 1, AxisColumn)
	require.NoError(t, err)
	assert.True(t, tree.Clipped)
	assert.Equal(t, 0, tree.ScrollY, "single-line content has no vertical overflow to scroll")
}

func TestHitTestFocusableRespectsLaterFirstAndClip(t *testing.T) {
	root := &Tree{
		Kind: vnode.Box, Rect: Rect{X: 0, Y: 0, W: 10, H: 10}, Clipped: true,
		Children: []*Tree{
			{InstanceID: 1, Kind: vnode.Button, Rect: Rect{X: 0, Y: 0, W: 5, H: 1}},
			{InstanceID: 2, Kind: vnode.Button, Rect: Rect{X: 2, Y: 0, W: 5, H: 1}},
		},
	}
	assert.Equal(t, uint64(2), HitTestFocusable(root, 3, 0), "later child wins overlap")
	assert.Equal(t, uint64(0), HitTestFocusable(root, 20, 0), "outside bounds misses")
}

func TestZeroDimensionedFocusableNeverHits(t *testing.T) {
	root := &Tree{
		Kind: vnode.Box, Rect: Rect{X: 0, Y: 0, W: 10, H: 10},
		Children: []*Tree{
			{InstanceID: 1, Kind: vnode.Button, Rect: Rect{X: 0, Y: 0, W: 0, H: 0}},
		},
	}
	assert.Equal(t, uint64(0), HitTestFocusable(root, 0, 0))
}
