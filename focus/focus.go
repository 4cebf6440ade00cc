// Package focus computes the ordered list of focusable widgets from a
// layout tree and advances/resolves focus across frames.
package focus

import (
	"sort"
	"sync"

	"github.com/wwsheng009/tuirun/vnode"
)

// focusableKinds mirrors the widget kinds a11y-visible enough to receive
// keyboard focus.
var focusableKinds = map[vnode.Kind]bool{
	vnode.Button: true, vnode.Input: true, vnode.Select: true,
	vnode.Checkbox: true, vnode.RadioGroup: true, vnode.Tree: true,
	vnode.Table: true, vnode.VirtualList: true, vnode.CommandPalette: true,
	vnode.Dropdown: true, vnode.FilePicker: true, vnode.FileTreeExplorer: true,
	vnode.CodeEditor: true, vnode.DiffViewer: true, vnode.LogsConsole: true,
}

// Node is the minimal shape focus-list computation needs from a committed
// instance: identity, kind, disabled flag, tab grouping, and measured width.
type Node struct {
	ID        uint64
	Kind      vnode.Kind
	Disabled  bool
	TabIndex  int
	HasTab    bool
	Width     int
	TrapID    string // non-empty if this node (or an ancestor) is inside a focusTrap
	Children  []*Node
}

// ComputeFocusList walks n in DFS pre-order, collecting the ids of every
// focusable, enabled, non-zero-width widget.
func ComputeFocusList(n *Node) []uint64 {
	var out []uint64
	collect(n, &out)
	return out
}

func collect(n *Node, out *[]uint64) {
	if n == nil {
		return
	}
	if focusableKinds[n.Kind] && !n.Disabled && n.Width > 0 {
		*out = append(*out, n.ID)
	}
	for _, c := range n.Children {
		collect(c, out)
	}
}

// Direction is a focus-advance direction.
type Direction int

const (
	DirNext Direction = iota
	DirPrev
)

// ComputeMovedFocusID advances by one within list with wraparound. A nil
// current starts at the first (DirNext) or last (DirPrev) entry; a current
// not present in list falls back the same way.
func ComputeMovedFocusID(list []uint64, current *uint64, dir Direction) uint64 {
	if len(list) == 0 {
		return 0
	}
	if current == nil {
		if dir == DirNext {
			return list[0]
		}
		return list[len(list)-1]
	}
	idx := indexOf(list, *current)
	if idx < 0 {
		if dir == DirNext {
			return list[0]
		}
		return list[len(list)-1]
	}
	if dir == DirNext {
		return list[(idx+1)%len(list)]
	}
	return list[(idx-1+len(list))%len(list)]
}

func indexOf(list []uint64, id uint64) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// State is the cross-frame focus holder: the currently applied focus id,
// any pending request from router/app code, and the active trap id (if
// any). Guarded by a mutex since it's read by the router and written by
// the scheduler from the same cooperative loop but may be inspected by
// breadcrumb/diagnostic goroutines.
type State struct {
	mu      sync.Mutex
	current *uint64
	pending *uint64
	trapID  string
}

// Current returns the currently focused id, or nil if none.
func (s *State) Current() *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RequestFocus queues id to become focused at the next finalize pass.
func (s *State) RequestFocus(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := id
	s.pending = &v
}

// SetTrap records the active focusTrap id, or "" to clear it.
func (s *State) SetTrap(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trapID = id
}

// TrapID returns the active focusTrap id, or "" if none.
func (s *State) TrapID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trapID
}

// FinalizeForCommittedTree reconciles state against the newly committed
// focus list: (a) applies a pending request if present and in the list,
// (b) else retains current if still present, (c) else reassigns to the
// first focusable, (d) else clears focus. A pending request not in the
// list is discarded.
func (s *State) FinalizeForCommittedTree(list []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		p := *s.pending
		s.pending = nil
		if indexOf(list, p) >= 0 {
			s.current = &p
			return
		}
	}
	if s.current != nil && indexOf(list, *s.current) >= 0 {
		return
	}
	if len(list) > 0 {
		first := list[0]
		s.current = &first
		return
	}
	s.current = nil
}

// TabGroups orders Tab navigation across focusZone groups by ascending
// tabIndex, breaking ties by declaration order within the DFS list.
func TabGroups(n *Node) [][]uint64 {
	groups := map[int][]uint64{}
	var order []int
	collectTabGroups(n, 0, false, groups, &order)
	sort.Ints(order)
	out := make([][]uint64, 0, len(order))
	seen := map[int]bool{}
	for _, idx := range order {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, groups[idx])
	}
	return out
}

func collectTabGroups(n *Node, tabIndex int, inherited bool, groups map[int][]uint64, order *[]int) {
	if n == nil {
		return
	}
	idx := tabIndex
	if n.HasTab {
		idx = n.TabIndex
		inherited = true
	}
	if focusableKinds[n.Kind] && !n.Disabled && n.Width > 0 {
		if _, ok := groups[idx]; !ok {
			*order = append(*order, idx)
		}
		groups[idx] = append(groups[idx], n.ID)
	}
	for _, c := range n.Children {
		collectTabGroups(c, idx, inherited, groups, order)
	}
}
