// Package app implements the scheduler: it owns application state,
// drives the per-frame commit/layout/render/requestFrame cycle,
// enforces frame backpressure, and wires the whole thing as a
// charmbracelet/bubbletea tea.Model for inline execution.
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/yaoapp/kun/log"

	"github.com/wwsheng009/tuirun/backend"
	"github.com/wwsheng009/tuirun/commit"
	"github.com/wwsheng009/tuirun/draw"
	"github.com/wwsheng009/tuirun/engine"
	"github.com/wwsheng009/tuirun/focus"
	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/layer"
	"github.com/wwsheng009/tuirun/layout"
	"github.com/wwsheng009/tuirun/render"
	"github.com/wwsheng009/tuirun/router"
	"github.com/wwsheng009/tuirun/theme"
	"github.com/wwsheng009/tuirun/vnode"
)

// SpinnerTickPeriod throttles widget-mode ticks to an animated widget's
// intrinsic period when nothing more specific is registered.
const SpinnerTickPeriod = 100 * time.Millisecond

// Config bundles the recognized RuntimeConfig keys the scheduler reads.
type Config struct {
	MaxFramesInFlight uint32 // default 1
	UseV2Cursor       bool
	Theme             theme.Theme

	// OnRender is the optional breadcrumb sink. Installing it must never
	// change routing outcomes, only observe them.
	OnRender func(Breadcrumb)
}

// Breadcrumb is the optional per-frame observability snapshot.
type Breadcrumb struct {
	ID    string
	Event struct {
		Kind string
		Path string
	}
	Focus struct {
		FocusedID    uint64
		ActiveZoneID string
		ActiveTrapID string
	}
	Cursor *draw.Cursor
	Frame  struct {
		CommitMs, LayoutMs, RenderMs float64
		Incremental                 bool
	}
}

// ViewFunc produces this frame's vnode tree from the current state.
type ViewFunc func(state interface{}) vnode.Node

// App owns state and drives the frame loop. It is not safe for
// concurrent use — all mutation happens on the single cooperative task
// bubbletea drives via Update.
type App struct {
	cfg   Config
	state interface{}
	view  ViewFunc

	allocator    *instance.IDAllocator
	prevInstance *instance.Instance
	prevLayout   *layout.Tree

	focusState *focus.State
	layers     *layer.Registry
	layerStack *layer.StackState
	routerEng  *router.Engine
	decoder    *engine.Decoder
	backendImp backend.RuntimeBackend

	viewportW, viewportH int

	framesInFlight int
	overcommitUsed bool
	framesOwed     int

	tick            int64
	lastSpinnerTick time.Time
	hasAnimated     bool
}

// New constructs an App with the given initial state, view function,
// and config.
func New(initialState interface{}, view ViewFunc, cfg Config) *App {
	if cfg.MaxFramesInFlight == 0 {
		cfg.MaxFramesInFlight = 1
	}
	return &App{
		cfg:        cfg,
		state:      initialState,
		view:       view,
		allocator:  &instance.IDAllocator{},
		focusState: &focus.State{},
		layers:     layer.NewRegistry(),
		layerStack: layer.NewStackState(),
		decoder:    engine.NewDecoder(),
	}
}

// AttachBackend installs the RuntimeBackend this app submits frames to
// and polls events from.
func (a *App) AttachBackend(b backend.RuntimeBackend) { a.backendImp = b }

// State returns the current application state.
func (a *App) State() interface{} { return a.state }

// SetViewport sets the character-grid size RunFrame lays out and
// renders against. Program.Update drives this from tea.WindowSizeMsg;
// a host running App directly (no bubbletea wrapper) must call it at
// least once before the first RunFrame.
func (a *App) SetViewport(w, h int) {
	a.viewportW, a.viewportH = w, h
	a.invalidate(true)
}

// Dispatch applies x to state: a direct replacement value, an updater
// func(prev) interface{}, or a thunk func(dispatch, getState) that may
// call Dispatch again (synchronously or later, e.g. from a goroutine
// posting back through backend.PostUserEvent).
func (a *App) Dispatch(x interface{}) {
	switch v := x.(type) {
	case func(prev interface{}) interface{}:
		a.state = v(a.state)
	case func(dispatch func(interface{}), getState func() interface{}):
		v(a.Dispatch, a.State)
		return
	default:
		a.state = x
	}
	a.invalidate(true)
}

func (a *App) invalidate(urgent bool) {
	a.framesOwed++
	_ = urgent
}

// needsFrame reports whether a pending invalidation should produce a
// frame now, honoring the backpressure policy: a frame already in
// flight defers a new non-interactive request, but an interactive one
// may overcommit by exactly one extra frame.
func (a *App) needsFrame(interactive bool) bool {
	if a.framesOwed == 0 {
		return false
	}
	if uint32(a.framesInFlight) < a.cfg.MaxFramesInFlight {
		return true
	}
	if interactive && !a.overcommitUsed {
		a.overcommitUsed = true
		return true
	}
	return false
}

// RunFrame executes one full frame body: view, commit, finalize focus,
// layout, render, a synchronous backend requestFrame, and finally pending
// cleanups/effects. Returns the breadcrumb for this frame; its timings and
// focus are always filled, its ID only when OnRender is installed.
func (a *App) RunFrame(ctx context.Context) (Breadcrumb, error) {
	var bc Breadcrumb
	commitStart := time.Now()

	vn := a.view(a.state)
	result := commit.CommitVNodeTree(a.prevInstance, vn, commit.Options{Allocator: a.allocator})
	if result.Err != nil {
		log.Error("tuirun app: commit failed: %v", result.Err)
		return bc, result.Err
	}
	a.prevInstance = result.Root
	bc.Frame.CommitMs = time.Since(commitStart).Seconds() * 1000

	widths := collectLayoutWidths(a.prevLayout)
	focusTree := buildFocusTree(a.prevInstance, widths)
	focusList := focus.ComputeFocusList(focusTree)
	a.focusState.FinalizeForCommittedTree(focusList)
	if cur := a.focusState.Current(); cur != nil {
		bc.Focus.FocusedID = *cur
	}

	layoutStart := time.Now()
	lt, err := layout.Layout(a.prevInstance, 0, 0, a.viewportW, a.viewportH, layout.AxisColumn)
	if err != nil {
		log.Error("tuirun app: layout failed: %v", err)
		return bc, err
	}
	a.prevLayout = lt
	bc.Frame.LayoutMs = time.Since(layoutStart).Seconds() * 1000

	renderStart := time.Now()
	builder := draw.NewBuilder()
	rc := &render.Context{Builder: builder, Theme: a.cfg.Theme, UseV2Cursor: a.cfg.UseV2Cursor, Tick: a.tick}
	if cur := a.focusState.Current(); cur != nil {
		rc.FocusID = *cur
	}
	if err := render.RenderToDrawlist(a.prevInstance, lt, a.viewportW, a.viewportH, rc); err != nil {
		log.Error("tuirun app: render failed: %v", err)
		return bc, err
	}
	bc.Frame.RenderMs = time.Since(renderStart).Seconds() * 1000

	bytes, err := builder.Build()
	if err != nil {
		log.Error("tuirun app: drawlist build failed: %v", err)
		return bc, err
	}

	if a.backendImp != nil {
		a.framesInFlight++
		if err := a.backendImp.RequestFrame(ctx, bytes); err != nil {
			a.framesInFlight--
			log.Error("tuirun app: requestFrame failed: %v", err)
			return bc, err
		}
		a.framesInFlight--
	}
	a.overcommitUsed = false
	if a.framesOwed > 0 {
		a.framesOwed--
	}

	a.runEffects()

	if a.cfg.OnRender != nil {
		bc.ID = uuid.NewString()
		a.cfg.OnRender(bc)
	}
	return bc, nil
}

// runEffects collects and runs hook cleanups/effects for the just-
// committed tree, in the order the spec requires: prior-frame cleanups
// before this frame's effects.
func (a *App) runEffects() {
	walkComposite(a.prevInstance, func(inst *instance.Instance) {
		if inst.Composite == nil {
			return
		}
		for _, cleanup := range inst.Composite.TakePendingCleanups() {
			runIsolatedCleanup(cleanup)
		}
	})
	walkComposite(a.prevInstance, func(inst *instance.Instance) {
		if inst.Composite == nil {
			return
		}
		for _, slot := range inst.Composite.TakePendingEffects() {
			inst.Composite.RunEffect(slot)
		}
	})
}

func runIsolatedCleanup(cleanup func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("tuirun app: effect cleanup panic: %v", r)
		}
	}()
	cleanup()
}

func walkComposite(inst *instance.Instance, fn func(*instance.Instance)) {
	if inst == nil {
		return
	}
	fn(inst)
	for _, c := range inst.Children {
		walkComposite(c, fn)
	}
}

// collectLayoutWidths maps instance id to measured width from the
// previous frame's layout tree, the most recent measurement available
// when focus is finalized (finalize runs before this frame's layout).
func collectLayoutWidths(lt *layout.Tree) map[uint64]int {
	widths := map[uint64]int{}
	var walk func(*layout.Tree)
	walk = func(t *layout.Tree) {
		if t == nil {
			return
		}
		widths[t.InstanceID] = t.Rect.W
		for _, c := range t.Children {
			walk(c)
		}
	}
	walk(lt)
	return widths
}

func buildFocusTree(inst *instance.Instance, widths map[uint64]int) *focus.Node {
	if inst == nil {
		return nil
	}
	width, known := widths[inst.ID]
	if !known {
		// A widget committed for the first time this frame has no
		// prior measurement; treat it as present so layout gets a
		// chance to measure it before the next finalize excludes it.
		width = 1
	}
	n := &focus.Node{
		ID:       inst.ID,
		Kind:     inst.Kind,
		Disabled: inst.Props.Bool("disabled", false),
		Width:    width,
	}
	if inst.Props.Has("tabIndex") {
		n.HasTab = true
		n.TabIndex = inst.Props.Int("tabIndex", 0)
	}
	for _, c := range inst.Children {
		n.Children = append(n.Children, buildFocusTree(c, widths))
	}
	return n
}

// ShouldRenderTick decides whether a tick event should produce a frame:
// raw-mode ticks without a state change never do; widget-mode ticks
// fire only when an animated widget is present and the spinner period
// has elapsed.
func (a *App) ShouldRenderTick(now time.Time, animatedWidgetPresent bool) bool {
	if !animatedWidgetPresent {
		return false
	}
	if now.Sub(a.lastSpinnerTick) < SpinnerTickPeriod {
		return false
	}
	a.lastSpinnerTick = now
	return true
}

// Program wraps App as a tea.Model for executionMode:"inline", so
// bubbletea's event loop supplies the suspension points requestFrame
// and pollEvents need.
type Program struct {
	app *App
}

// NewProgram returns a tea.Model wrapping app.
func NewProgram(a *App) *Program { return &Program{app: a} }

// tickMsg drives the ~SpinnerTickPeriod animation cadence via tea.Tick.
type tickMsg time.Time

// Init starts the tick loop; the first frame runs when bubbletea delivers
// the initial window-size message.
func (p *Program) Init() tea.Cmd {
	return tea.Tick(SpinnerTickPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles window-size and tick messages, then runs a frame if the
// resulting invalidation warrants one. Key and mouse messages are not
// routed into the router engine; they only let an already-owed frame run.
func (p *Program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		p.app.viewportW, p.app.viewportH = m.Width, m.Height
		p.app.invalidate(true)
	case tickMsg:
		next := tea.Tick(SpinnerTickPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
		if p.app.ShouldRenderTick(time.Time(m), p.app.hasAnimated) {
			p.app.invalidate(false)
			if p.app.needsFrame(false) {
				if _, err := p.app.RunFrame(context.Background()); err != nil {
					return p, tea.Quit
				}
			}
		}
		return p, next
	}

	if p.app.needsFrame(true) {
		if _, err := p.app.RunFrame(context.Background()); err != nil {
			return p, tea.Quit
		}
	}
	return p, nil
}

// View is unused: frame presentation goes through backend.RequestFrame,
// not bubbletea's string-based renderer. It returns "" so bubbletea
// makes no terminal writes of its own.
func (p *Program) View() string { return "" }

// RouterEngine returns the router engine so callers can register
// ScrollHandler/WidgetKeyHandler/TextHandler callbacks before the
// program starts.
func (a *App) RouterEngine() *router.Engine {
	if a.routerEng == nil {
		a.routerEng = &router.Engine{
			Layers: a.layers,
			Stack:  a.layerStack,
			Focus:  a.focusState,
			Chords: router.NewChordManager(),
		}
	}
	return a.routerEng
}
