// Package commit turns a vnode.Node tree into a committed instance.Instance
// tree, preserving identity (and hook state) for children whose
// (kind, key/position) matches the prior frame, and tearing down the rest.
package commit

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/yaoapp/kun/log"

	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/vnode"
)

// Render is supplied by the host: for composite widgets it expands a
// vnode.Node (given its hook state) into the vnode.Node subtree to commit
// this frame. Leaf/container kinds with no composite behavior are never
// passed to Render, and with a nil Render composite nodes commit unchanged.
type Render func(n vnode.Node, hooks *instance.CompositeState) vnode.Node

// compositeKinds lists kinds that run a Render and therefore get a
// CompositeState (hook slots). Everything else is a plain structural node.
var compositeKinds = map[vnode.Kind]bool{}

// RegisterComposite marks kind as carrying hook state. Host applications
// (and widget packages) call this during init for any widget-backed kind
// implemented as a composite.
func RegisterComposite(k vnode.Kind) { compositeKinds[k] = true }

// Result is the outcome of a commit: either a new root, or a fatal error.
type Result struct {
	Root *instance.Instance
	Err  error
}

// Options bundles the render callback and id allocator for a commit pass.
type Options struct {
	Allocator *instance.IDAllocator
	Render    Render // may be nil if no composite kinds are registered
}

// errSink accumulates isolated teardown errors across a commit pass.
type errSink struct{ err *multierror.Error }

func (s *errSink) add(e error) { s.err = multierror.Append(s.err, e) }

// CommitVNodeTree reconciles vn against prev (the prior frame's committed
// root, or nil on first commit) and returns the new instance tree.
func CommitVNodeTree(prev *instance.Instance, vn vnode.Node, opts Options) Result {
	if opts.Allocator == nil {
		return Result{Err: fmt.Errorf("commit: nil allocator")}
	}
	sink := &errSink{}
	root := commitNode(prev, vn, nil, 0, opts, sink)
	if sink.err.ErrorOrNil() != nil {
		log.Error("tuirun commit: cleanup errors: %v", sink.err.ErrorOrNil())
	}
	return Result{Root: root}
}

func positionKey(position int) string {
	return fmt.Sprintf("#%d", position)
}

// commitNode reconciles a single node against its previous counterpart (if
// identity matches) and recurses into children.
func commitNode(prev *instance.Instance, vn vnode.Node, parent *instance.Instance, position int, opts Options, sink *errSink) *instance.Instance {
	key := vn.Key()
	if key == "" {
		key = positionKey(position)
	}

	reuse := prev != nil && prev.Kind == vn.Kind && prev.Key == key

	var inst *instance.Instance
	if reuse {
		inst = prev
		inst.Props = vn.Props
		inst.Text = vn.Text
		inst.Position = position
		inst.Parent = parent
	} else {
		if prev != nil {
			teardown(prev, sink)
		}
		inst = &instance.Instance{
			ID:       opts.Allocator.Next(),
			Kind:     vn.Kind,
			Key:      key,
			Position: position,
			Props:    vn.Props,
			Text:     vn.Text,
			Parent:   parent,
		}
		if compositeKinds[vn.Kind] {
			inst.Composite = instance.NewCompositeState()
		}
	}

	toCommit := vn
	if inst.Composite != nil && opts.Render != nil {
		inst.Composite.BeginRender()
		toCommit = opts.Render(vn, inst.Composite)
	}

	// When identity didn't match, teardown(prev, sink) above already tore
	// down prev's entire subtree (including its children's hook state);
	// none of prev's children are eligible for reuse, so prevChildren
	// must not be derived from that destroyed tree.
	var prevChildren map[matchKey]*instance.Instance
	if reuse {
		prevChildren = childMap(prev)
	} else {
		prevChildren = childMap(nil)
	}
	inst.Children = inst.Children[:0]
	for i, childVN := range toCommit.Children {
		childKey := childVN.Key()
		if childKey == "" {
			childKey = positionKey(i)
		}
		prevChild := prevChildren[matchKey{childVN.Kind, childKey}]
		delete(prevChildren, matchKey{childVN.Kind, childKey})
		child := commitNode(prevChild, childVN, inst, i, opts, sink)
		inst.Children = append(inst.Children, child)
	}

	// Anything left in prevChildren disappeared this frame: tear it down.
	for _, leftover := range prevChildren {
		teardown(leftover, sink)
	}

	return inst
}

type matchKey struct {
	kind vnode.Kind
	key  string
}

func childMap(prev *instance.Instance) map[matchKey]*instance.Instance {
	out := make(map[matchKey]*instance.Instance)
	if prev == nil {
		return out
	}
	for _, c := range prev.Children {
		out[matchKey{c.Kind, c.Key}] = c
	}
	return out
}

// teardown runs cleanups for inst and its subtree in reverse DFS,
// swallowing errors (logged, aggregated, never thrown through).
func teardown(inst *instance.Instance, sink *errSink) {
	if inst == nil {
		return
	}
	// children first (reverse DFS: deepest/last subtree torn down first)
	for i := len(inst.Children) - 1; i >= 0; i-- {
		teardown(inst.Children[i], sink)
	}
	if inst.Composite == nil {
		return
	}
	for _, cleanup := range inst.Composite.AllCleanups() {
		runIsolated(cleanup, sink)
	}
}

func runIsolated(cleanup func(), sink *errSink) {
	defer func() {
		if r := recover(); r != nil {
			sink.add(fmt.Errorf("cleanup panic: %v", r))
		}
	}()
	cleanup()
}
