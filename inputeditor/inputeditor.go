// Package inputeditor implements the keyboard-driven text value/cursor/
// selection/undo model shared by every text-entry widget: value mutation,
// grapheme-aware cursor motion, clipboard copy/cut, and a bounded undo
// stack that coalesces contiguous typing into a single step.
package inputeditor

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/rivo/uniseg"
)

// CoalesceWindow bounds how close in time two consecutive edits must be
// to collapse onto the same undo step.
const CoalesceWindow = 700 * time.Millisecond

// MaxUndoDepth bounds the undo stack so pathologically long editing
// sessions don't grow it unboundedly.
const MaxUndoDepth = 200

// State is the value/cursor/selection/undo store for one input widget.
type State struct {
	Value string
	// Cursor and SelectionStart/SelectionEnd are grapheme-cluster
	// indices into Value, not byte or rune offsets.
	Cursor         int
	SelectionStart int
	SelectionEnd   int
	hasSelection   bool

	undo []snapshot
	redo []snapshot

	lastEditAt  time.Time
	lastWasType bool

	now func() time.Time
}

type snapshot struct {
	value  string
	cursor int
}

// NewState returns an empty editor state. now defaults to time.Now; tests
// may override it via SetClock before feeding events.
func NewState() *State {
	return &State{now: time.Now}
}

// SetClock overrides the time source used for undo-coalescing decisions.
func (s *State) SetClock(now func() time.Time) { s.now = now }

func (s *State) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// HasSelection reports whether a non-empty selection is active.
func (s *State) HasSelection() bool { return s.hasSelection && s.SelectionStart != s.SelectionEnd }

// ClearSelection collapses the selection without moving the cursor.
func (s *State) ClearSelection() {
	s.hasSelection = false
	s.SelectionStart, s.SelectionEnd = s.Cursor, s.Cursor
}

// SetSelection marks [start, end) as selected, ordering the bounds and
// clamping to the grapheme count.
func (s *State) SetSelection(start, end int) {
	n := clusterCount(s.Value)
	start = clampInt(start, 0, n)
	end = clampInt(end, 0, n)
	if start > end {
		start, end = end, start
	}
	s.SelectionStart, s.SelectionEnd = start, end
	s.hasSelection = start != end
}

// clusterCount returns the number of extended grapheme clusters in s.
func clusterCount(s string) int {
	n := 0
	rem := s
	for len(rem) > 0 {
		_, rest, _, _ := uniseg.FirstGraphemeClusterInString(rem, -1)
		n++
		rem = rest
	}
	return n
}

// clusterBoundaries returns the byte offset at which grapheme cluster i
// begins, for i in [0, clusterCount(s)].
func clusterBoundaries(s string) []int {
	bounds := []int{0}
	rem := s
	offset := 0
	for len(rem) > 0 {
		cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(rem, -1)
		offset += len(cluster)
		bounds = append(bounds, offset)
		rem = rest
	}
	return bounds
}

func byteOffsetAt(s string, clusterIdx int) int {
	bounds := clusterBoundaries(s)
	if clusterIdx < 0 {
		return bounds[0]
	}
	if clusterIdx >= len(bounds) {
		return bounds[len(bounds)-1]
	}
	return bounds[clusterIdx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pushUndo records the current value/cursor as an undo step. If
// coalesce is true and the previous edit was also a coalescable typing
// edit within CoalesceWindow, the earlier step is kept and no new one is
// pushed, so a run of keystrokes undoes in one step.
func (s *State) pushUndo(prev snapshot, coalesce bool) {
	now := s.clock()
	if coalesce && s.lastWasType && len(s.undo) > 0 && now.Sub(s.lastEditAt) <= CoalesceWindow {
		s.lastEditAt = now
		s.redo = nil
		return
	}
	s.undo = append(s.undo, prev)
	if len(s.undo) > MaxUndoDepth {
		s.undo = s.undo[len(s.undo)-MaxUndoDepth:]
	}
	s.redo = nil
	s.lastEditAt = now
	s.lastWasType = coalesce
}

// InsertText inserts text at the cursor (replacing the selection, if
// any), and records an undo step coalesced with adjacent typing.
func (s *State) InsertText(text string) {
	prev := snapshot{value: s.Value, cursor: s.Cursor}

	start, end := s.Cursor, s.Cursor
	if s.HasSelection() {
		start, end = s.SelectionStart, s.SelectionEnd
	}
	bs, be := byteOffsetAt(s.Value, start), byteOffsetAt(s.Value, end)
	s.Value = s.Value[:bs] + text + s.Value[be:]
	s.Cursor = start + clusterCount(text)
	s.ClearSelection()

	s.pushUndo(prev, true)
}

// Backspace deletes the grapheme before the cursor, or the selection if
// one is active.
func (s *State) Backspace() bool {
	if s.HasSelection() {
		s.deleteSelection()
		return true
	}
	if s.Cursor == 0 {
		return false
	}
	prev := snapshot{value: s.Value, cursor: s.Cursor}
	bs, be := byteOffsetAt(s.Value, s.Cursor-1), byteOffsetAt(s.Value, s.Cursor)
	s.Value = s.Value[:bs] + s.Value[be:]
	s.Cursor--
	s.pushUndo(prev, false)
	return true
}

// Delete removes the grapheme at the cursor, or the selection if one is
// active.
func (s *State) Delete() bool {
	if s.HasSelection() {
		s.deleteSelection()
		return true
	}
	n := clusterCount(s.Value)
	if s.Cursor >= n {
		return false
	}
	prev := snapshot{value: s.Value, cursor: s.Cursor}
	bs, be := byteOffsetAt(s.Value, s.Cursor), byteOffsetAt(s.Value, s.Cursor+1)
	s.Value = s.Value[:bs] + s.Value[be:]
	s.pushUndo(prev, false)
	return true
}

func (s *State) deleteSelection() {
	prev := snapshot{value: s.Value, cursor: s.Cursor}
	bs, be := byteOffsetAt(s.Value, s.SelectionStart), byteOffsetAt(s.Value, s.SelectionEnd)
	s.Value = s.Value[:bs] + s.Value[be:]
	s.Cursor = s.SelectionStart
	s.ClearSelection()
	s.pushUndo(prev, false)
}

// MoveCursor moves the cursor by one grapheme cluster; extend also moves
// the selection's far edge, starting a new selection at the prior
// cursor position if none was active.
func (s *State) MoveCursor(delta int, extend bool) {
	n := clusterCount(s.Value)
	from := s.Cursor
	next := clampInt(s.Cursor+delta, 0, n)
	s.Cursor = next

	if !extend {
		s.ClearSelection()
		return
	}
	if !s.hasSelection {
		s.SetSelection(from, next)
	} else {
		anchor := s.SelectionStart
		if from == s.SelectionStart {
			anchor = s.SelectionEnd
		}
		s.SetSelection(anchor, next)
	}
}

// MoveCursorWord moves to the next/previous word boundary (dir -1 or
// +1), extending the selection when extend is true.
func (s *State) MoveCursorWord(dir int, extend bool) {
	bounds := clusterBoundaries(s.Value)
	n := len(bounds) - 1
	at := func(i int) string { return s.Value[bounds[i]:bounds[i+1]] }
	pos := clampInt(s.Cursor, 0, n)
	if dir < 0 {
		for pos > 0 && isSpace(at(pos-1)) {
			pos--
		}
		for pos > 0 && !isSpace(at(pos-1)) {
			pos--
		}
	} else {
		for pos < n && !isSpace(at(pos)) {
			pos++
		}
		for pos < n && isSpace(at(pos)) {
			pos++
		}
	}
	s.MoveCursor(pos-s.Cursor, extend)
}

func isSpace(cluster string) bool { return cluster == " " || cluster == "\t" }

// Home/End move the cursor to the start/end of the value.
func (s *State) Home(extend bool) { s.MoveCursor(-s.Cursor, extend) }
func (s *State) End(extend bool)  { s.MoveCursor(clusterCount(s.Value)-s.Cursor, extend) }

// Undo pops the most recent undo step, pushing the current state onto
// the redo stack.
func (s *State) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	cur := snapshot{value: s.Value, cursor: s.Cursor}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, cur)
	s.Value, s.Cursor = prev.value, prev.cursor
	s.ClearSelection()
	s.lastWasType = false
	return true
}

// Redo re-applies the most recently undone step.
func (s *State) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	cur := snapshot{value: s.Value, cursor: s.Cursor}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, cur)
	s.Value, s.Cursor = next.value, next.cursor
	s.ClearSelection()
	s.lastWasType = false
	return true
}

// Selected returns the currently selected substring, or "" if none.
func (s *State) Selected() string {
	if !s.HasSelection() {
		return ""
	}
	bs, be := byteOffsetAt(s.Value, s.SelectionStart), byteOffsetAt(s.Value, s.SelectionEnd)
	return s.Value[bs:be]
}

// Copy writes the current selection to the system clipboard.
func (s *State) Copy() error {
	if !s.HasSelection() {
		return nil
	}
	return clipboard.WriteAll(s.Selected())
}

// Cut copies the selection to the clipboard and then deletes it. The
// deletion happens even if the clipboard write fails (no clipboard
// utility on headless terminals), since Cut must still edit the value.
func (s *State) Cut() error {
	if !s.HasSelection() {
		return nil
	}
	err := clipboard.WriteAll(s.Selected())
	s.deleteSelection()
	return err
}

// Paste inserts the clipboard contents at the cursor.
func (s *State) Paste() error {
	text, err := clipboard.ReadAll()
	if err != nil {
		return err
	}
	s.InsertText(text)
	return nil
}

// HandleKey routes a single key token through the editing model,
// reporting whether it was consumed. Plain character input should be
// routed through InsertText directly by the caller (key tokens carry
// bubbles/key-style names, not literal characters).
func (s *State) HandleKey(keyToken string, ctrl, shift bool) bool {
	switch keyToken {
	case "backspace":
		return s.Backspace()
	case "delete":
		return s.Delete()
	case "left":
		if ctrl {
			s.MoveCursorWord(-1, shift)
		} else {
			s.MoveCursor(-1, shift)
		}
		return true
	case "right":
		if ctrl {
			s.MoveCursorWord(1, shift)
		} else {
			s.MoveCursor(1, shift)
		}
		return true
	case "home":
		s.Home(shift)
		return true
	case "end":
		s.End(shift)
		return true
	case "ctrl+c":
		s.Copy()
		return true
	case "ctrl+x":
		s.Cut()
		return true
	case "ctrl+v":
		s.Paste()
		return true
	case "ctrl+z":
		return s.Undo()
	case "ctrl+y", "ctrl+shift+z":
		return s.Redo()
	}
	return false
}
