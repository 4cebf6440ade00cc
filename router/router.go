// Package router implements the central event dispatch: fatal/resize,
// mouse, key, and text/paste routing, in the strict precedence order the
// engine requires, plus the chord manager for multi-key bindings.
package router

import (
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/wwsheng009/tuirun/focus"
	"github.com/wwsheng009/tuirun/layer"
	"github.com/wwsheng009/tuirun/layout"
)

// WheelStep is the number of lines a single wheel notch scrolls a
// scrollable ancestor.
const WheelStep = 3

// EventKind discriminates the incoming event union.
type EventKind int

const (
	EventFatal EventKind = iota
	EventResize
	EventMouseDown
	EventMouseUp
	EventMouseDrag
	EventMouseMove
	EventMouseWheel
	EventKeyDown
	EventKeyRepeat
	EventText
	EventPaste
)

// Event is the unified input event the router consumes.
type Event struct {
	Kind EventKind

	X, Y     int // mouse events, cell coordinates
	WheelDY  int // positive = scroll down
	Mods     Modifiers

	Key  string // key events: bubbles/key-style token, e.g. "ctrl+k", "enter"
	Text string // text/paste events

	Width, Height int // resize events
}

// Modifiers mirrors the modifier bits passed through as routed-action
// metadata.
type Modifiers struct {
	Ctrl, Alt, Shift bool
}

// ActionKind enumerates the typed outcomes a route can publish.
type ActionKind string

const (
	ActionPress       ActionKind = "press"
	ActionClose       ActionKind = "close"
	ActionFocusChange ActionKind = "focusChange"
	ActionRowPress    ActionKind = "rowPress"
	ActionSort        ActionKind = "sort"
	ActionScroll      ActionKind = "scroll"
	ActionEdit        ActionKind = "edit"
)

// Action is the typed event published to the application.
type Action struct {
	Kind     ActionKind
	TargetID uint64
	Mods     Modifiers
	Detail   interface{}
}

// Result is returned by every router entry point.
type Result struct {
	NeedsRender bool
	Action      *Action
}

// PressedState tracks the mouse-down target across the down/up pair.
type PressedState struct {
	ID     uint64
	Active bool
}

// Engine bundles the cross-cutting state routeEngineEvent reads/writes:
// the layer registry, the layer stack (for ESC-close), the focus state,
// and the chord manager. The layout tree used for hit testing is passed in
// with each event rather than held here.
type Engine struct {
	Layers  *layer.Registry
	Stack   *layer.StackState
	Focus   *focus.State
	Chords  *ChordManager
	Pressed PressedState

	// ScrollHandler routes a wheel event to the nearest scrollable
	// ancestor of the hit id; returns whether it changed scroll offset.
	ScrollHandler func(hitID uint64, dy int) bool
	// WidgetKeyHandler gives the currently focused widget's local router
	// first refusal on a key event; returns (handled, result).
	WidgetKeyHandler func(focusedID uint64, ev Event) (bool, Result)
	// TextHandler applies a text/paste edit to the focused input.
	TextHandler func(focusedID uint64, ev Event) Result
}

// RouteEngineEvent dispatches ev per the strict precedence: fatal/resize
// first, then mouse, then key, then text/paste.
func (e *Engine) RouteEngineEvent(ev Event, lt *layout.Tree) Result {
	switch ev.Kind {
	case EventFatal, EventResize:
		return Result{NeedsRender: true}
	case EventMouseDown, EventMouseUp, EventMouseDrag, EventMouseMove, EventMouseWheel:
		return e.routeMouse(ev, lt)
	case EventKeyDown, EventKeyRepeat:
		return e.routeKey(ev)
	case EventText, EventPaste:
		return e.routeText(ev)
	default:
		return Result{}
	}
}

func (e *Engine) routeMouse(ev Event, lt *layout.Tree) Result {
	hit := e.Layers.HitTestLayers(ev.X, ev.Y)
	if hit.Blocked {
		if hit.BlockingLayer != nil && hit.BlockingLayer.BackdropClick {
			e.Stack.CloseTopmostLayer()
			return Result{NeedsRender: true, Action: &Action{Kind: ActionClose}}
		}
		return Result{}
	}

	var hitID uint64
	if lt != nil {
		hitID = layout.HitTestFocusable(lt, ev.X, ev.Y)
	}

	switch ev.Kind {
	case EventMouseDown:
		if e.Chords != nil {
			e.Chords.Reset()
		}
		if hitID != 0 {
			e.Focus.RequestFocus(hitID)
			e.Pressed = PressedState{ID: hitID, Active: true}
			return Result{NeedsRender: true}
		}
		return Result{}
	case EventMouseUp:
		defer func() { e.Pressed = PressedState{} }()
		if e.Pressed.Active && hitID == e.Pressed.ID && hitID != 0 {
			return Result{NeedsRender: true, Action: &Action{Kind: ActionPress, TargetID: hitID, Mods: ev.Mods}}
		}
		return Result{}
	case EventMouseDrag, EventMouseMove:
		return Result{}
	case EventMouseWheel:
		if e.ScrollHandler != nil && e.ScrollHandler(hitID, ev.WheelDY*WheelStep) {
			return Result{NeedsRender: true, Action: &Action{Kind: ActionScroll, TargetID: hitID}}
		}
		return Result{}
	default:
		return Result{}
	}
}

func (e *Engine) routeKey(ev Event) Result {
	if ev.Key == "esc" || ev.Key == "escape" {
		if e.Stack.CloseTopmostLayer() {
			return Result{NeedsRender: true, Action: &Action{Kind: ActionClose}}
		}
	}

	focusedID := uint64(0)
	if cur := e.Focus.Current(); cur != nil {
		focusedID = *cur
	}

	if e.WidgetKeyHandler != nil {
		if handled, res := e.WidgetKeyHandler(focusedID, ev); handled {
			e.Chords.Reset()
			return res
		}
	}

	if e.Chords != nil {
		if handled, res := e.Chords.Feed(ev.Key, focusedID); handled {
			return res
		}
	}

	switch ev.Key {
	case "tab":
		e.Focus.RequestFocus(0) // caller resolves via ComputeMovedFocusID before next finalize
		return Result{NeedsRender: true, Action: &Action{Kind: ActionFocusChange, Mods: ev.Mods}}
	case "shift+tab":
		return Result{NeedsRender: true, Action: &Action{Kind: ActionFocusChange, Mods: Modifiers{Shift: true}}}
	case "enter", " ", "space":
		if focusedID != 0 {
			return Result{NeedsRender: true, Action: &Action{Kind: ActionPress, TargetID: focusedID, Mods: ev.Mods}}
		}
	}
	return Result{}
}

func (e *Engine) routeText(ev Event) Result {
	focusedID := uint64(0)
	if cur := e.Focus.Current(); cur != nil {
		focusedID = *cur
	}
	if focusedID == 0 || e.TextHandler == nil {
		return Result{}
	}
	return e.TextHandler(focusedID, ev)
}

// ChordHandler is invoked when a bound sequence matches.
type ChordHandler func(focusedID uint64) Result

// binding pairs a space-separated token sequence (each token held as a
// bubbles/key.Binding so single-key steps reuse its alias-matching rules)
// with its handler.
type binding struct {
	tokens  []key.Binding
	handler ChordHandler
}

// ChordManager tracks a pending-keys buffer and matches it against
// registered sequences, resetting on timeout, mismatch, or an external
// reset (focus change, ESC).
type ChordManager struct {
	bindings []binding
	pending  []string
	lastKey  time.Time
	resetAfter time.Duration
	now      func() time.Time
}

// NewChordManager returns a manager with the spec's 500ms default reset
// window. now defaults to time.Now; tests may override it.
func NewChordManager() *ChordManager {
	return &ChordManager{resetAfter: 500 * time.Millisecond, now: time.Now}
}

// Bind registers handler for sequence (space-separated tokens, e.g.
// "ctrl+k ctrl+c" or "g g").
func (m *ChordManager) Bind(sequence string, handler ChordHandler) {
	m.bindings = append(m.bindings, binding{tokens: splitTokens(sequence), handler: handler})
}

func splitTokens(sequence string) []key.Binding {
	var out []key.Binding
	cur := ""
	flush := func() {
		if cur != "" {
			out = append(out, key.NewBinding(key.WithKeys(cur)))
			cur = ""
		}
	}
	for _, r := range sequence {
		if r == ' ' {
			flush()
			continue
		}
		cur += string(r)
	}
	flush()
	return out
}

// Reset clears the pending-keys buffer, used on ESC or a focus-changing
// side effect.
func (m *ChordManager) Reset() {
	m.pending = nil
}

// Feed appends keyToken to the pending buffer (resetting first if the
// reset window elapsed) and checks for a full or partial match.
func (m *ChordManager) Feed(keyToken string, focusedID uint64) (bool, Result) {
	now := m.now()
	if len(m.pending) > 0 && now.Sub(m.lastKey) > m.resetAfter {
		m.pending = nil
	}
	m.lastKey = now
	m.pending = append(m.pending, keyToken)

	anyPartial := false
	for _, b := range m.bindings {
		if len(b.tokens) < len(m.pending) {
			continue
		}
		if !tokensMatch(b.tokens[:len(m.pending)], m.pending) {
			continue
		}
		if len(b.tokens) == len(m.pending) {
			m.pending = nil
			return true, b.handler(focusedID)
		}
		anyPartial = true
	}
	if !anyPartial {
		m.pending = nil
	}
	return false, Result{}
}

// tokensMatch reports whether each pending raw key token is one of the
// accepted aliases for the corresponding bound step.
func tokensMatch(tokens []key.Binding, pending []string) bool {
	if len(tokens) != len(pending) {
		return false
	}
	for i, b := range tokens {
		matched := false
		for _, k := range b.Keys() {
			if k == pending[i] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
