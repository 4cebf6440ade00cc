package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wwsheng009/tuirun/vnode"
)

func sampleTree() *Node {
	return &Node{Kind: vnode.Box, Width: 10, Children: []*Node{
		{ID: 1, Kind: vnode.Button, Width: 5},
		{ID: 2, Kind: vnode.Input, Width: 5, Disabled: true},
		{ID: 3, Kind: vnode.Select, Width: 0},
		{ID: 4, Kind: vnode.Checkbox, Width: 5},
	}}
}

func TestComputeFocusListSkipsDisabledAndZeroWidth(t *testing.T) {
	list := ComputeFocusList(sampleTree())
	assert.Equal(t, []uint64{1, 4}, list)
}

func TestComputeMovedFocusIDWrapsAndHandlesNilCurrent(t *testing.T) {
	list := []uint64{1, 4, 7}
	assert.Equal(t, uint64(1), ComputeMovedFocusID(list, nil, DirNext))
	assert.Equal(t, uint64(7), ComputeMovedFocusID(list, nil, DirPrev))

	cur := uint64(7)
	assert.Equal(t, uint64(1), ComputeMovedFocusID(list, &cur, DirNext), "wraps past the end")

	unknown := uint64(99)
	assert.Equal(t, uint64(1), ComputeMovedFocusID(list, &unknown, DirNext), "unknown current falls back to first")
}

func TestFinalizeRetainsCurrentWhenStillPresent(t *testing.T) {
	s := &State{}
	s.RequestFocus(1)
	s.FinalizeForCommittedTree([]uint64{1, 4})
	assert.Equal(t, uint64(1), *s.Current())

	s.FinalizeForCommittedTree([]uint64{1, 4})
	assert.Equal(t, uint64(1), *s.Current(), "retains current with no pending request")
}

func TestFinalizeReassignsToFirstWhenCurrentGone(t *testing.T) {
	s := &State{}
	s.RequestFocus(4)
	s.FinalizeForCommittedTree([]uint64{1, 4})
	s.FinalizeForCommittedTree([]uint64{1})
	assert.Equal(t, uint64(1), *s.Current())
}

func TestFinalizeClearsWhenListEmpty(t *testing.T) {
	s := &State{}
	s.RequestFocus(1)
	s.FinalizeForCommittedTree([]uint64{1})
	s.FinalizeForCommittedTree(nil)
	assert.Nil(t, s.Current())
}

func TestTabGroupsOrderAscendingByTabIndex(t *testing.T) {
	tree := &Node{Kind: vnode.Box, Width: 10, Children: []*Node{
		{ID: 1, Kind: vnode.Button, Width: 5, HasTab: true, TabIndex: 2},
		{ID: 2, Kind: vnode.Button, Width: 5, HasTab: true, TabIndex: 1},
	}}
	groups := TabGroups(tree)
	assert.Equal(t, [][]uint64{{2}, {1}}, groups)
}
