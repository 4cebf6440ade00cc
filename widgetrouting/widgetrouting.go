// Package widgetrouting implements the per-widget keyboard routers the
// central router consults before falling back to generic focus traversal:
// virtualList, table, tree, and commandPalette.
package widgetrouting

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/wwsheng009/tuirun/router"
)

// VirtualListState is the local store for a virtualList widget, keyed by
// widget id. Every item has the constant ItemHeight; no measured-height
// cache is kept.
type VirtualListState struct {
	ScrollTop         int
	SelectedIndex     int
	ViewportHeight    int
	ItemCount         int
	ItemHeight        int // constant row height used when no measurer is supplied
	Overscan          int
}

// RouteVirtualListKey handles up/down/home/end/pageUp/pageDown, recomputing
// scrollTop from the (constant) item height to keep the selection visible
// within ±overscan rows. Whenever the selection moves it returns the visible
// range [startIdx, endIdx]; scrollChanged reports whether scrollTop changed.
func RouteVirtualListKey(s *VirtualListState, keyToken string) (handled bool, scrollChanged bool, startIdx, endIdx int) {
	if s.ItemCount == 0 {
		return false, false, 0, 0
	}
	prevSelected := s.SelectedIndex
	prevScroll := s.ScrollTop

	switch keyToken {
	case "up":
		s.SelectedIndex = clampInt(s.SelectedIndex-1, 0, s.ItemCount-1)
	case "down":
		s.SelectedIndex = clampInt(s.SelectedIndex+1, 0, s.ItemCount-1)
	case "home":
		s.SelectedIndex = 0
	case "end":
		s.SelectedIndex = s.ItemCount - 1
	case "pgup":
		s.SelectedIndex = clampInt(s.SelectedIndex-visibleRows(s), 0, s.ItemCount-1)
	case "pgdown":
		s.SelectedIndex = clampInt(s.SelectedIndex+visibleRows(s), 0, s.ItemCount-1)
	default:
		return false, false, 0, 0
	}

	if s.SelectedIndex == prevSelected {
		return true, false, 0, 0
	}

	s.ScrollTop = reconcileScroll(s, s.ScrollTop)
	scrollChanged = s.ScrollTop != prevScroll
	startIdx, endIdx = visibleRange(s)
	return true, scrollChanged, startIdx, endIdx
}

// RouteVirtualListWheel scrolls by dy (already multiplied by router.WheelStep
// by the caller), clamped to [0, content-viewport].
func RouteVirtualListWheel(s *VirtualListState, dy int) (changed bool) {
	maxScroll := maxInt(0, s.ItemCount*itemHeight(s)-s.ViewportHeight)
	next := clampInt(s.ScrollTop+dy, 0, maxScroll)
	changed = next != s.ScrollTop
	s.ScrollTop = next
	return changed
}

func itemHeight(s *VirtualListState) int {
	if s.ItemHeight <= 0 {
		return 1
	}
	return s.ItemHeight
}

func visibleRows(s *VirtualListState) int {
	h := itemHeight(s)
	if h == 0 {
		return 1
	}
	rows := s.ViewportHeight / h
	if rows < 1 {
		return 1
	}
	return rows
}

func reconcileScroll(s *VirtualListState, scroll int) int {
	h := itemHeight(s)
	top := scroll / h
	bottom := top + visibleRows(s) - 1
	if s.SelectedIndex < top+s.Overscan {
		top = maxInt(0, s.SelectedIndex-s.Overscan)
	} else if s.SelectedIndex > bottom-s.Overscan {
		top = s.SelectedIndex - visibleRows(s) + 1 + s.Overscan
	}
	maxTop := maxInt(0, s.ItemCount-visibleRows(s))
	top = clampInt(top, 0, maxTop)
	return top * h
}

func visibleRange(s *VirtualListState) (int, int) {
	h := itemHeight(s)
	start := s.ScrollTop / h
	end := minInt(s.ItemCount-1, start+visibleRows(s)-1)
	return start, end
}

// TableState is the local store for a table widget.
type TableState struct {
	FocusedRowIndex    int // -1 is the header row
	FocusedColumnIndex int
	ScrollTop          int
	ShowHeader         bool
	SortableColumns    map[int]bool
	RowCount           int
	ColumnCount        int
	LastClickedKey     string
}

// SortDirection is the toggled sort order for a column.
type SortDirection int

const (
	SortAscending SortDirection = iota
	SortDescending
)

// TableKeyResult is the routing outcome for a table key event.
type TableKeyResult struct {
	Handled            bool
	NextFocusedRow     int
	NextScrollTop      int
	RowPress           bool
	SortColumn         int
	SortDirection      SortDirection
	Sorted             bool
}

// RouteTableKey routes a key event within a table. The header row
// (FocusedRowIndex == -1) is navigable when ShowHeader is true; Enter/Space
// on a sortable header column toggles its sort direction; body rows
// delegate vertical movement to row navigation and fire rowPress on
// Enter/Space.
func RouteTableKey(s *TableState, keyToken string) TableKeyResult {
	minRow := 0
	if s.ShowHeader {
		minRow = -1
	}

	switch keyToken {
	case "up":
		s.FocusedRowIndex = clampInt(s.FocusedRowIndex-1, minRow, s.RowCount-1)
	case "down":
		s.FocusedRowIndex = clampInt(s.FocusedRowIndex+1, minRow, s.RowCount-1)
	case "left":
		s.FocusedColumnIndex = clampInt(s.FocusedColumnIndex-1, 0, s.ColumnCount-1)
	case "right":
		s.FocusedColumnIndex = clampInt(s.FocusedColumnIndex+1, 0, s.ColumnCount-1)
	case "enter", " ", "space":
		if s.FocusedRowIndex == -1 {
			if s.SortableColumns[s.FocusedColumnIndex] {
				dir := SortAscending
				key := sortKey(s.FocusedColumnIndex)
				if s.LastClickedKey == key {
					dir = SortDescending
					key = ""
				}
				s.LastClickedKey = key
				return TableKeyResult{Handled: true, SortColumn: s.FocusedColumnIndex, SortDirection: dir, Sorted: true}
			}
			return TableKeyResult{Handled: true}
		}
		return TableKeyResult{Handled: true, RowPress: true, NextFocusedRow: s.FocusedRowIndex}
	default:
		return TableKeyResult{}
	}
	return TableKeyResult{Handled: true, NextFocusedRow: s.FocusedRowIndex, NextScrollTop: s.ScrollTop}
}

func sortKey(col int) string { return "col:" + itoa(col) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TreeState is the local store for a tree widget. Expanded is keyed by
// node key; LoadTokens holds a monotonic counter per node key so a later loadChildren
// request supersedes an earlier one for the same node.
type TreeState struct {
	FocusedKey  string
	ScrollTop   int
	Expanded    map[string]bool
	LoadTokens  map[string]int
	FlatKeys    []string // the cached flattened visible-node order
}

// RouteTreeKey navigates FlatKeys with up/down, expands/collapses with
// left/right, and reports whether a lazy-load was requested (expanding a
// node with no cached children).
func RouteTreeKey(s *TreeState, keyToken string, hasChildren func(key string) bool, isLoaded func(key string) bool) (handled bool, loadRequested bool, loadKey string, loadToken int) {
	idx := indexOfKey(s.FlatKeys, s.FocusedKey)

	switch keyToken {
	case "up":
		if idx > 0 {
			s.FocusedKey = s.FlatKeys[idx-1]
		}
		return true, false, "", 0
	case "down":
		if idx >= 0 && idx < len(s.FlatKeys)-1 {
			s.FocusedKey = s.FlatKeys[idx+1]
		}
		return true, false, "", 0
	case "right":
		if s.FocusedKey == "" {
			return true, false, "", 0
		}
		if s.Expanded == nil {
			s.Expanded = map[string]bool{}
		}
		if !s.Expanded[s.FocusedKey] {
			s.Expanded[s.FocusedKey] = true
			if hasChildren(s.FocusedKey) && !isLoaded(s.FocusedKey) {
				if s.LoadTokens == nil {
					s.LoadTokens = map[string]int{}
				}
				s.LoadTokens[s.FocusedKey]++
				return true, true, s.FocusedKey, s.LoadTokens[s.FocusedKey]
			}
		}
		return true, false, "", 0
	case "left":
		if s.Expanded != nil {
			s.Expanded[s.FocusedKey] = false
		}
		return true, false, "", 0
	case "enter":
		return true, false, "", 0
	default:
		return false, false, "", 0
	}
}

// IsLoadResultStale reports whether a loadChildren response for (key,
// token) has been superseded by a later request for the same node.
func IsLoadResultStale(s *TreeState, key string, token int) bool {
	return s.LoadTokens != nil && s.LoadTokens[key] != token
}

func indexOfKey(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// CommandPaletteState is the local store for a commandPalette widget.
type CommandPaletteState struct {
	Query          string
	SourcePrefixes []string
	PrefixIndex    int
	SelectedIndex  int
}

// CommandItem is one entry a palette ranks against the query.
type CommandItem struct {
	Label string
	ID    string
}

// RankCommands fuzzy-ranks items against query using sahilm/fuzzy, most
// relevant first.
func RankCommands(items []CommandItem, query string) []CommandItem {
	if query == "" {
		return items
	}
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.Label
	}
	matches := fuzzy.Find(query, labels)
	out := make([]CommandItem, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}

// RouteCommandPaletteText appends text to the query (text events route to
// query while the palette is focused).
func RouteCommandPaletteText(s *CommandPaletteState, text string) {
	s.Query += text
}

// RouteCommandPaletteKey handles Tab (cycle source prefixes), Enter
// (invoke onSelect with ranked[selectedIndex]), and ESC (invoke onClose).
func RouteCommandPaletteKey(s *CommandPaletteState, keyToken string, ranked []CommandItem, onSelect func(CommandItem), onClose func()) bool {
	switch keyToken {
	case "tab":
		if len(s.SourcePrefixes) > 0 {
			s.PrefixIndex = (s.PrefixIndex + 1) % len(s.SourcePrefixes)
		}
		return true
	case "enter":
		if s.SelectedIndex >= 0 && s.SelectedIndex < len(ranked) {
			onSelect(ranked[s.SelectedIndex])
		}
		return true
	case "esc", "escape":
		onClose()
		return true
	case "up":
		s.SelectedIndex = clampInt(s.SelectedIndex-1, 0, maxInt(0, len(ranked)-1))
		return true
	case "down":
		s.SelectedIndex = clampInt(s.SelectedIndex+1, 0, maxInt(0, len(ranked)-1))
		return true
	default:
		return false
	}
}

// CurrentPrefix returns the active source prefix string, or "" if none.
func (s *CommandPaletteState) CurrentPrefix() string {
	if s.PrefixIndex < 0 || s.PrefixIndex >= len(s.SourcePrefixes) {
		return ""
	}
	return s.SourcePrefixes[s.PrefixIndex]
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// WidgetKeyDispatch wires the per-widget routers above into a
// router.Engine.WidgetKeyHandler, given a lookup from focused id to its
// widget kind and key handler.
func WidgetKeyDispatch(lookup func(focusedID uint64) (kind string, handler func(keyToken string) (bool, router.Result))) func(focusedID uint64, ev router.Event) (bool, router.Result) {
	return func(focusedID uint64, ev router.Event) (bool, router.Result) {
		if focusedID == 0 {
			return false, router.Result{}
		}
		_, handler := lookup(focusedID)
		if handler == nil {
			return false, router.Result{}
		}
		return handler(strings.ToLower(ev.Key))
	}
}
