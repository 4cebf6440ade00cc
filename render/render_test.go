package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/draw"
	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/layout"
	"github.com/wwsheng009/tuirun/theme"
	"github.com/wwsheng009/tuirun/vnode"
)

func buildTree() (*instance.Instance, *layout.Tree) {
	root := &instance.Instance{ID: 1, Kind: vnode.Column, Children: []*instance.Instance{
		{ID: 2, Kind: vnode.Text, Text: "hello"},
	}}
	lt := &layout.Tree{InstanceID: 1, Kind: vnode.Column, Rect: layout.Rect{X: 0, Y: 0, W: 20, H: 5}, Children: []*layout.Tree{
		{InstanceID: 2, Kind: vnode.Text, Rect: layout.Rect{X: 0, Y: 0, W: 5, H: 1}},
	}}
	return root, lt
}

func TestRenderToDrawlistProducesBalancedClips(t *testing.T) {
	root, lt := buildTree()
	root.Props = vnode.Props{}
	lt.Clipped = true

	rc := &Context{Builder: draw.NewBuilder(), Theme: theme.Dark}
	err := RenderToDrawlist(root, lt, 20, 5, rc)
	require.NoError(t, err)
	assert.Equal(t, 0, rc.Builder.ClipDepth())

	_, err = rc.Builder.Build()
	require.NoError(t, err)
}

func TestDamageRectSkipsNonIntersectingSubtree(t *testing.T) {
	root, lt := buildTree()
	outside := layout.Rect{X: 100, Y: 100, W: 1, H: 1}
	rc := &Context{Builder: draw.NewBuilder(), Theme: theme.Dark, DamageRect: &outside}
	err := RenderToDrawlist(root, lt, 20, 5, rc)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.Builder.OpCount(), "only clearTo should be emitted")
}

func TestUnfocusedFrameHidesCursorUnderV2(t *testing.T) {
	root, lt := buildTree()
	rc := &Context{Builder: draw.NewBuilder(), Theme: theme.Dark, UseV2Cursor: true}
	err := RenderToDrawlist(root, lt, 20, 5, rc)
	require.NoError(t, err)
	assert.Nil(t, rc.cursor)
	assert.Equal(t, 2, rc.Builder.OpCount(), "clearTo plus one hiding setCursor")
}

func TestSetCursorFirstCallWins(t *testing.T) {
	rc := &Context{Builder: draw.NewBuilder()}
	rc.SetCursor(draw.Cursor{X: 1, Y: 1, Visible: true})
	rc.SetCursor(draw.Cursor{X: 9, Y: 9, Visible: true})
	assert.Equal(t, 1, rc.cursor.X)
}
