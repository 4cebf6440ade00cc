package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/vnode"
)

func TestCommitPreservesIdentityOnMatch(t *testing.T) {
	opts := Options{Allocator: &instance.IDAllocator{}}

	tree1 := vnode.Node{Kind: vnode.Row, Children: []vnode.Node{
		{Kind: vnode.Button, Props: vnode.Props{"key": "a"}},
		{Kind: vnode.Button, Props: vnode.Props{"key": "b"}},
	}}
	r1 := CommitVNodeTree(nil, tree1, opts)
	require.NoError(t, r1.Err)
	idA := r1.Root.Children[0].ID
	idB := r1.Root.Children[1].ID

	tree2 := vnode.Node{Kind: vnode.Row, Children: []vnode.Node{
		{Kind: vnode.Button, Props: vnode.Props{"key": "a", "label": "changed"}},
		{Kind: vnode.Button, Props: vnode.Props{"key": "b"}},
	}}
	r2 := CommitVNodeTree(r1.Root, tree2, opts)
	require.NoError(t, r2.Err)
	assert.Equal(t, idA, r2.Root.Children[0].ID)
	assert.Equal(t, idB, r2.Root.Children[1].ID)
	assert.Equal(t, r1.Root.ID, r2.Root.ID)
}

func TestCommitMismatchAllocatesFreshInstance(t *testing.T) {
	opts := Options{Allocator: &instance.IDAllocator{}}

	tree1 := vnode.Node{Kind: vnode.Row, Children: []vnode.Node{
		{Kind: vnode.Button, Props: vnode.Props{"key": "a"}},
	}}
	r1 := CommitVNodeTree(nil, tree1, opts)
	idA := r1.Root.Children[0].ID

	tree2 := vnode.Node{Kind: vnode.Row, Children: []vnode.Node{
		{Kind: vnode.Input, Props: vnode.Props{"key": "a"}},
	}}
	r2 := CommitVNodeTree(r1.Root, tree2, opts)
	assert.NotEqual(t, idA, r2.Root.Children[0].ID)
	assert.Equal(t, vnode.Input, r2.Root.Children[0].Kind)
}

func TestCommitRunsCleanupOnUnmount(t *testing.T) {
	RegisterComposite(vnode.Checkbox)
	defer delete(compositeKinds, vnode.Checkbox)

	var order []string
	render := func(n vnode.Node, hooks *instance.CompositeState) vnode.Node {
		hooks.UseEffect(func() func() {
			order = append(order, "mount")
			return func() { order = append(order, "unmount") }
		}, []interface{}{})
		return n
	}
	opts := Options{Allocator: &instance.IDAllocator{}, Render: render}

	tree1 := vnode.Node{Kind: vnode.Row, Children: []vnode.Node{
		{Kind: vnode.Checkbox, Props: vnode.Props{"key": "c"}},
	}}
	r1 := CommitVNodeTree(nil, tree1, opts)
	for _, idx := range r1.Root.Children[0].Composite.TakePendingEffects() {
		r1.Root.Children[0].Composite.RunEffect(idx)
	}

	tree2 := vnode.Node{Kind: vnode.Row}
	r2 := CommitVNodeTree(r1.Root, tree2, opts)
	require.NoError(t, r2.Err)
	assert.Equal(t, []string{"mount", "unmount"}, order)
	assert.Empty(t, r2.Root.Children)
}

func TestPositionalIdentityWithoutExplicitKey(t *testing.T) {
	opts := Options{Allocator: &instance.IDAllocator{}}
	tree1 := vnode.Node{Kind: vnode.Column, Children: []vnode.Node{
		{Kind: vnode.Text, Text: "one"},
		{Kind: vnode.Text, Text: "two"},
	}}
	r1 := CommitVNodeTree(nil, tree1, opts)
	firstID := r1.Root.Children[0].ID

	tree2 := vnode.Node{Kind: vnode.Column, Children: []vnode.Node{
		{Kind: vnode.Text, Text: "one-updated"},
		{Kind: vnode.Text, Text: "two"},
	}}
	r2 := CommitVNodeTree(r1.Root, tree2, opts)
	assert.Equal(t, firstID, r2.Root.Children[0].ID)
	assert.Equal(t, "one-updated", r2.Root.Children[0].Text)
}
