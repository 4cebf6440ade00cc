// Package instance defines the committed Instance tree: the stable,
// identity-preserving counterpart of a vnode.Node tree, carrying
// composite widgets' hook state (CompositeState) across frames.
package instance

import (
	"sync/atomic"

	"github.com/wwsheng009/tuirun/vnode"
)

// IDAllocator hands out process-monotonic instance ids.
type IDAllocator struct {
	next uint64
}

// Next returns the next id, starting at 1 (0 is reserved for "no instance").
func (a *IDAllocator) Next() uint64 {
	return atomic.AddUint64(&a.next, 1)
}

// Instance mirrors a vnode.Node with a stable identity and, for composite
// widgets, hook state.
type Instance struct {
	ID       uint64
	Kind     vnode.Kind
	Key      string // explicit props.key, or the position-derived fallback
	Position int
	Props    vnode.Props
	Text     string

	Parent   *Instance
	Children []*Instance

	Composite *CompositeState
}

// IdentityKey is what determines reuse: (parent instance id, position,
// kind, explicit key).
type IdentityKey struct {
	ParentID uint64
	Position int
	Kind     vnode.Kind
	Key      string
}

// Identity computes this instance's identity key.
func (i *Instance) Identity() IdentityKey {
	var parentID uint64
	if i.Parent != nil {
		parentID = i.Parent.ID
	}
	return IdentityKey{ParentID: parentID, Position: i.Position, Kind: i.Kind, Key: i.Key}
}

// slotKind discriminates the hook slot arena entries.
type slotKind int

const (
	slotState slotKind = iota
	slotEffect
	slotMemo
	slotRef
)

type slot struct {
	kind slotKind

	// state slot
	value interface{}

	// effect slot
	deps      []interface{}
	hasDeps   bool
	cleanup   func()
	fn        func() func()
	firedOnce bool

	// memo slot
	memoDeps []interface{}

	// ref slot
	refValue interface{}
}

// EffectRequest is a pending effect to run after commit, in declaration
// order.
type EffectRequest struct {
	Owner *CompositeState
	Index int
}

// CompositeState holds the hook slot arena for one composite instance plus
// the render-cursor bookkeeping reset by BeginRender.
type CompositeState struct {
	slots  []*slot
	cursor int

	needsRender bool

	// pendingEffects/pendingCleanups are collected by UseEffect during the
	// current commit and drained by the scheduler after backend ack.
	pendingEffects   []int
	pendingCleanups  []func()
}

// NewCompositeState allocates an empty hook slot arena.
func NewCompositeState() *CompositeState {
	return &CompositeState{}
}

// BeginRender resets the hook cursor to 0 ahead of running the view/render
// function for this instance.
func (c *CompositeState) BeginRender() {
	c.cursor = 0
	c.needsRender = false
}

// nextSlot returns the slot at the current cursor, growing the arena and
// advancing the cursor. When growing, newSlot initializes the slot kind.
func (c *CompositeState) nextSlot(kind slotKind, newSlot func() *slot) *slot {
	idx := c.cursor
	c.cursor++
	if idx < len(c.slots) {
		return c.slots[idx]
	}
	s := newSlot()
	s.kind = kind
	c.slots = append(c.slots, s)
	return s
}

// objectIs mirrors Object.is semantics: NaN equals NaN, +0 does not equal
// -0. Used by useState's setter and useEffect's dependency comparison.
func objectIs(a, b interface{}) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		if af != af && bf != bf {
			return true // both NaN
		}
		if af == 0 && bf == 0 {
			return (1/af > 0) == (1/bf > 0) // distinguish +0/-0
		}
		return af == bf
	}
	return a == b
}

// depsChanged reports whether any dependency differs from prev by
// objectIs, or the slot has never run (prev == nil).
func depsChanged(prev, next []interface{}) bool {
	if prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if !objectIs(prev[i], next[i]) {
			return true
		}
	}
	return false
}

// UseState allocates (or reuses) one state slot. The returned setter
// invalidates the owning instance only when the new value is not
// Object.is-equal to the current one.
func (c *CompositeState) UseState(init interface{}) (interface{}, func(interface{})) {
	s := c.nextSlot(slotState, func() *slot { return &slot{value: init} })
	setter := func(next interface{}) {
		if !objectIs(s.value, next) {
			s.value = next
			c.needsRender = true
		}
	}
	return s.value, setter
}

// UseEffect registers an effect to run after commit. deps == nil means
// "run every render"; an empty non-nil slice means "run once"; otherwise
// the effect reruns when any dependency changes by Object.is.
func (c *CompositeState) UseEffect(fn func() func(), deps []interface{}) {
	s := c.nextSlot(slotEffect, func() *slot { return &slot{} })

	var shouldRun bool
	if deps == nil {
		shouldRun = true
	} else {
		shouldRun = depsChanged(s.deps, deps)
	}
	s.deps = deps
	s.hasDeps = deps != nil
	s.fn = fn

	if shouldRun {
		if s.cleanup != nil {
			c.pendingCleanups = append(c.pendingCleanups, s.cleanup)
			s.cleanup = nil
		}
		slotIndex := c.cursor - 1
		c.pendingEffects = append(c.pendingEffects, slotIndex)
	}
}

// RunEffect invokes the effect function at slotIndex and stores its
// cleanup (if any) for the next re-fire or unmount.
func (c *CompositeState) RunEffect(slotIndex int) {
	if slotIndex < 0 || slotIndex >= len(c.slots) {
		return
	}
	s := c.slots[slotIndex]
	if s.fn == nil {
		return
	}
	s.cleanup = s.fn()
}

// TakePendingEffects drains and returns the slot indices queued by
// UseEffect this render, in declaration order.
func (c *CompositeState) TakePendingEffects() []int {
	out := c.pendingEffects
	c.pendingEffects = nil
	return out
}

// TakePendingCleanups drains and returns cleanups whose effect is about to
// re-fire this commit (run before the new effects of the same pass).
func (c *CompositeState) TakePendingCleanups() []func() {
	out := c.pendingCleanups
	c.pendingCleanups = nil
	return out
}

// UseMemo recomputes value only when deps change by Object.is.
func (c *CompositeState) UseMemo(compute func() interface{}, deps []interface{}) interface{} {
	first := c.cursor >= len(c.slots)
	s := c.nextSlot(slotMemo, func() *slot { return &slot{} })
	if first || depsChanged(s.memoDeps, deps) {
		s.value = compute()
		s.memoDeps = deps
	}
	return s.value
}

// UseRef returns a stable mutable cell that survives across renders.
func (c *CompositeState) UseRef(init interface{}) *Ref {
	s := c.nextSlot(slotRef, func() *slot { return &slot{refValue: init} })
	return &Ref{slot: s}
}

// Ref is a mutable cell returned by UseRef.
type Ref struct{ slot *slot }

// Get returns the ref's current value.
func (r *Ref) Get() interface{} { return r.slot.refValue }

// Set updates the ref's value without triggering a render.
func (r *Ref) Set(v interface{}) { r.slot.refValue = v }

// NeedsRender reports whether a setState call invalidated this instance
// since the last BeginRender.
func (c *CompositeState) NeedsRender() bool { return c.needsRender }

// AllCleanups returns every effect slot's retained cleanup, in reverse
// declaration order, for unmount teardown. Each slot's cleanup is cleared
// as it is collected, so a slot's cleanup is never returned twice even if
// AllCleanups is (incorrectly) invoked again on the same instance.
func (c *CompositeState) AllCleanups() []func() {
	var out []func()
	for i := len(c.slots) - 1; i >= 0; i-- {
		if c.slots[i].kind == slotEffect && c.slots[i].cleanup != nil {
			out = append(out, c.slots[i].cleanup)
			c.slots[i].cleanup = nil
		}
	}
	return out
}
