// Package layer implements the LayerRegistry (z-ordered overlay stack used
// for hit routing) and the LayerStackState used for ESC-close semantics.
package layer

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Backdrop describes how a layer dims/blocks the content beneath it.
type Backdrop int

const (
	BackdropNone Backdrop = iota
	BackdropDim
	BackdropBlock
)

// Layer is one entry in the registry: a z-ordered rectangle that may be
// modal (blocking input to everything below it).
type Layer struct {
	ID              string
	ZIndex          int
	InsertionIndex  int
	X, Y, W, H      int
	Modal           bool
	Backdrop        Backdrop
	BackdropClick   bool // clicking the backdrop closes the layer
}

func (l Layer) contains(x, y int) bool {
	return x >= l.X && x < l.X+l.W && y >= l.Y && y < l.Y+l.H
}

// HitResult is the outcome of hitTestLayers.
type HitResult struct {
	Layer         *Layer
	Blocked       bool
	BlockingLayer *Layer
}

// Registry stores layers sorted by (zIndex asc, insertionIndex asc) and
// answers hit-test / modal queries against that order.
type Registry struct {
	mu      sync.Mutex
	layers  []Layer
	nextIns int
}

// NewRegistry returns an empty layer registry.
func NewRegistry() *Registry { return &Registry{} }

// Add inserts l, assigning a default id via uuid if empty, and an
// insertion index used to order same-zIndex layers. Returns the assigned id.
func (r *Registry) Add(l Layer) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.InsertionIndex = r.nextIns
	r.nextIns++
	r.layers = append(r.layers, l)
	r.sortLocked()
	return l.ID
}

// Remove drops the layer with the given id, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.layers {
		if l.ID == id {
			r.layers = append(r.layers[:i], r.layers[i+1:]...)
			return
		}
	}
}

func (r *Registry) sortLocked() {
	sort.SliceStable(r.layers, func(i, j int) bool {
		if r.layers[i].ZIndex != r.layers[j].ZIndex {
			return r.layers[i].ZIndex < r.layers[j].ZIndex
		}
		return r.layers[i].InsertionIndex < r.layers[j].InsertionIndex
	})
}

// sortedTopDown returns layers from topmost to bottommost z-order.
func (r *Registry) sortedTopDown() []Layer {
	out := make([]Layer, len(r.layers))
	copy(out, r.layers)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// HitTestLayers iterates layers top-down; the first one containing (x, y)
// is the hit. If none contains the point but a modal layer exists above
// any candidate position, the hit is reported blocked by the topmost
// modal.
func (r *Registry) HitTestLayers(x, y int) HitResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	topDown := r.sortedTopDown()
	for i := range topDown {
		l := topDown[i]
		if l.contains(x, y) {
			return HitResult{Layer: &topDown[i]}
		}
		if l.Modal {
			m := topDown[i]
			return HitResult{Blocked: true, BlockingLayer: &m}
		}
	}
	return HitResult{}
}

// GetTopmostModal returns the highest-z modal layer, or nil if none.
func (r *Registry) GetTopmostModal() *Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.layers) - 1; i >= 0; i-- {
		if r.layers[i].Modal {
			l := r.layers[i]
			return &l
		}
	}
	return nil
}

// GetBackdrops returns every layer with a non-none backdrop, in ascending
// z order.
func (r *Registry) GetBackdrops() []Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Layer
	for _, l := range r.layers {
		if l.Backdrop != BackdropNone {
			out = append(out, l)
		}
	}
	return out
}

// closeEntry pairs a stacked layer id with its close callback.
type closeEntry struct {
	id      string
	onClose func()
}

// StackState tracks the open order of layers (independent of the
// registry's z-order) so ESC closes the most recently opened one.
type StackState struct {
	mu    sync.Mutex
	stack []closeEntry
}

// NewStackState returns an empty layer stack.
func NewStackState() *StackState { return &StackState{} }

// PushLayer moves id to the top of the close-order stack, removing any
// prior occurrence first.
func (s *StackState) PushLayer(id string, onClose func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	s.stack = append(s.stack, closeEntry{id: id, onClose: onClose})
}

// PopLayer removes id from the stack and returns its onClose callback, if
// it was present.
func (s *StackState) PopLayer(id string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.stack {
		if e.id == id {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return e.onClose
		}
	}
	return nil
}

func (s *StackState) removeLocked(id string) {
	for i, e := range s.stack {
		if e.id == id {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return
		}
	}
}

// CloseTopmostLayer pops the most recently pushed layer and invokes its
// onClose callback, if any. Reports whether a layer was closed.
func (s *StackState) CloseTopmostLayer() bool {
	s.mu.Lock()
	if len(s.stack) == 0 {
		s.mu.Unlock()
		return false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.mu.Unlock()

	if top.onClose != nil {
		top.onClose()
	}
	return true
}
