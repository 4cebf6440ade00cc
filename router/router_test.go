package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/focus"
	"github.com/wwsheng009/tuirun/layer"
	"github.com/wwsheng009/tuirun/layout"
	"github.com/wwsheng009/tuirun/vnode"
)

func newEngine() *Engine {
	return &Engine{
		Layers: layer.NewRegistry(),
		Stack:  layer.NewStackState(),
		Focus:  &focus.State{},
		Chords: NewChordManager(),
	}
}

func sampleLayoutTree() *layout.Tree {
	return &layout.Tree{
		Kind: vnode.Box, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 10},
		Children: []*layout.Tree{
			{InstanceID: 5, Kind: vnode.Button, Rect: layout.Rect{X: 0, Y: 0, W: 5, H: 1}},
		},
	}
}

func TestMouseDownSetsFocusAndPressed(t *testing.T) {
	e := newEngine()
	lt := sampleLayoutTree()
	res := e.RouteEngineEvent(Event{Kind: EventMouseDown, X: 1, Y: 0}, lt)
	require.True(t, res.NeedsRender)
	assert.Equal(t, uint64(5), e.Pressed.ID)
}

func TestMouseUpOnSameTargetFiresPress(t *testing.T) {
	e := newEngine()
	lt := sampleLayoutTree()
	e.RouteEngineEvent(Event{Kind: EventMouseDown, X: 1, Y: 0}, lt)
	res := e.RouteEngineEvent(Event{Kind: EventMouseUp, X: 1, Y: 0}, lt)
	require.NotNil(t, res.Action)
	assert.Equal(t, ActionPress, res.Action.Kind)
	assert.Equal(t, uint64(5), res.Action.TargetID)
}

func TestMouseUpElsewhereClearsPressedWithoutAction(t *testing.T) {
	e := newEngine()
	lt := sampleLayoutTree()
	e.RouteEngineEvent(Event{Kind: EventMouseDown, X: 1, Y: 0}, lt)
	res := e.RouteEngineEvent(Event{Kind: EventMouseUp, X: 9, Y: 9}, lt)
	assert.Nil(t, res.Action)
	assert.False(t, e.Pressed.Active)
}

func TestModalBlockedWithBackdropClickClosesLayer(t *testing.T) {
	e := newEngine()
	e.Layers.Add(layer.Layer{ID: "modal", ZIndex: 1, X: 5, Y: 5, W: 2, H: 2, Modal: true, BackdropClick: true})
	var closed bool
	e.Stack.PushLayer("modal", func() { closed = true })

	res := e.RouteEngineEvent(Event{Kind: EventMouseDown, X: 0, Y: 0}, sampleLayoutTree())
	require.NotNil(t, res.Action)
	assert.Equal(t, ActionClose, res.Action.Kind)
	assert.True(t, closed)
}

func TestEscConsultsLayerStackCloseOnEscape(t *testing.T) {
	e := newEngine()
	var closed bool
	e.Stack.PushLayer("panel", func() { closed = true })
	res := e.RouteEngineEvent(Event{Kind: EventKeyDown, Key: "esc"}, nil)
	assert.True(t, closed)
	assert.NotNil(t, res.Action)
}

func TestMouseClickResetsPendingChord(t *testing.T) {
	e := newEngine()
	lt := sampleLayoutTree()
	fired := false
	e.Chords.Bind("g g", func(focusedID uint64) Result { fired = true; return Result{} })

	e.RouteEngineEvent(Event{Kind: EventKeyDown, Key: "g"}, lt)

	e.RouteEngineEvent(Event{Kind: EventMouseDown, X: 1, Y: 0}, lt)

	handled, _ := e.Chords.Feed("g", 0)
	assert.False(t, handled, "intervening click reset the buffer; this is only a fresh partial match")
	assert.False(t, fired)
}

func TestChordManagerMatchesMultiKeySequence(t *testing.T) {
	m := NewChordManager()
	fired := false
	m.Bind("ctrl+k ctrl+c", func(focusedID uint64) Result {
		fired = true
		return Result{NeedsRender: true}
	})

	handled, _ := m.Feed("ctrl+k", 0)
	assert.False(t, handled, "partial match is buffered but does not fire yet")
	handled, _ = m.Feed("ctrl+c", 0)
	assert.True(t, handled)
	assert.True(t, fired)
}

func TestChordManagerResetsOnTimeout(t *testing.T) {
	m := NewChordManager()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	fired := false
	m.Bind("g g", func(focusedID uint64) Result { fired = true; return Result{} })

	m.Feed("g", 0)
	clock = clock.Add(600 * time.Millisecond)
	handled, _ := m.Feed("g", 0)
	assert.False(t, handled, "timeout reset means this is only a fresh partial match, not the full sequence")
	assert.False(t, fired)

	handled, _ = m.Feed("g", 0)
	assert.True(t, handled, "completing the sequence within the window fires the handler")
	assert.True(t, fired)
}

func TestChordManagerResetsOnNonMatchingKey(t *testing.T) {
	m := NewChordManager()
	fired := false
	m.Bind("g g", func(focusedID uint64) Result { fired = true; return Result{} })

	m.Feed("g", 0)
	m.Feed("x", 0)
	handled, _ := m.Feed("g", 0)
	assert.False(t, handled, "single g after the buffer reset is only a partial match")
	assert.False(t, fired)
}

func TestWheelRoutesToScrollHandlerWithWheelStep(t *testing.T) {
	e := newEngine()
	var gotDelta int
	e.ScrollHandler = func(hitID uint64, dy int) bool {
		gotDelta = dy
		return true
	}
	res := e.RouteEngineEvent(Event{Kind: EventMouseWheel, WheelDY: 2}, sampleLayoutTree())
	assert.True(t, res.NeedsRender)
	assert.Equal(t, 2*WheelStep, gotDelta)
}
