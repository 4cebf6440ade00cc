// Package render walks a committed instance tree and its matching layout
// tree and serializes it into drawlist ops, resolving the terminal cursor
// and style inheritance along the way.
package render

import (
	chromaquick "github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wwsheng009/tuirun/draw"
	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/layout"
	"github.com/wwsheng009/tuirun/style"
	"github.com/wwsheng009/tuirun/theme"
	"github.com/wwsheng009/tuirun/vnode"
)

// WidgetRenderer renders one instance's own content (not its children) into
// the builder, given its laid-out rect and the inherited style. Returns the
// style children should inherit.
type WidgetRenderer func(inst *instance.Instance, rect layout.Rect, inherited style.ResolvedStyle, rc *Context) style.ResolvedStyle

// kindRenderers dispatches by widget kind. Populated by RegisterWidget; a
// kind with no registered renderer draws nothing and passes the inherited
// style on to its children (pure containers).
var kindRenderers = map[vnode.Kind]WidgetRenderer{}

// RegisterWidget installs the renderer used for kind.
func RegisterWidget(kind vnode.Kind, r WidgetRenderer) { kindRenderers[kind] = r }

// CursorRequest is recorded by a focused input's renderer so the walk can
// emit exactly one setCursor (or hideCursor) at the end of the frame.
type CursorRequest struct {
	draw.Cursor
}

// Context bundles the per-frame inputs renderToDrawlist needs beyond the
// tree/layout pair: the active theme, focus id, damage rect, animation
// tick, and the builder being written to.
type Context struct {
	Builder     *draw.Builder
	Theme       theme.Theme
	FocusID     uint64
	DamageRect  *layout.Rect
	Tick        int64
	UseV2Cursor bool
	cursor      *CursorRequest
}

// SetCursor records the resolved cursor for this frame; only the first call
// per frame wins so nested widgets can't clobber an ancestor's intent.
func (c *Context) SetCursor(cur draw.Cursor) {
	if c.cursor == nil {
		c.cursor = &CursorRequest{Cursor: cur}
	}
}

// RenderToDrawlist walks tree/lt in DFS pre-order, emitting drawlist ops
// for every instance whose rect intersects rc.DamageRect (the whole
// viewport when nil), dispatching per-kind renderers, and finishing with
// exactly one setCursor/hideCursor call when the backend supports v2.
func RenderToDrawlist(tree *instance.Instance, lt *layout.Tree, viewportW, viewportH int, rc *Context) error {
	rc.Builder.ClearTo(viewportW, viewportH, baseStyle(rc.Theme))

	if err := walk(tree, lt, style.ResolvedStyle{}, rc); err != nil {
		return err
	}

	if rc.UseV2Cursor {
		if rc.cursor != nil {
			rc.Builder.SetCursor(rc.cursor.Cursor)
		} else {
			rc.Builder.HideCursor()
		}
	}
	return nil
}

func baseStyle(th theme.Theme) style.ResolvedStyle {
	return style.ResolvedStyle{
		Fg: theme.ResolveColor(th, "fg"),
		Bg: theme.ResolveColor(th, "bg"),
	}
}

// walkFrame pairs an instance/layout node with the style inherited from
// its parent.
type walkFrame struct {
	inst      *instance.Instance
	lt        *layout.Tree
	inherited style.ResolvedStyle
}

// stackEntry is either an unvisited node (leave == false) or a deferred
// pop-clip marker pushed after a container's children, so the pop happens
// once the whole subtree has been walked (clip push/pop must balance per
// subtree, not per pop of the work stack).
type stackEntry struct {
	frame walkFrame
	leave bool
}

func walk(root *instance.Instance, ltRoot *layout.Tree, inherited style.ResolvedStyle, rc *Context) error {
	if root == nil || ltRoot == nil {
		return nil
	}
	stack := []stackEntry{{frame: walkFrame{inst: root, lt: ltRoot, inherited: inherited}}}

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.leave {
			if err := rc.Builder.PopClip(); err != nil {
				return err
			}
			continue
		}

		frame := entry.frame
		if rc.DamageRect != nil && !intersects(*rc.DamageRect, frame.lt.Rect) {
			continue
		}

		childStyle := frame.inherited
		if r, ok := kindRenderers[frame.inst.Kind]; ok {
			childStyle = r(frame.inst, frame.lt.Rect, frame.inherited, rc)
		}

		clipped := frame.inst.Kind.IsContainer() && frame.lt.Clipped
		if clipped {
			rc.Builder.PushClip(frame.lt.Rect.X, frame.lt.Rect.Y, frame.lt.Rect.W, frame.lt.Rect.H)
			stack = append(stack, stackEntry{leave: true})
		}

		for i := len(frame.inst.Children) - 1; i >= 0; i-- {
			if i >= len(frame.lt.Children) || frame.lt.Children[i] == nil {
				continue
			}
			stack = append(stack, stackEntry{frame: walkFrame{
				inst: frame.inst.Children[i], lt: frame.lt.Children[i], inherited: childStyle,
			}})
		}
	}
	return nil
}

func intersects(a, b layout.Rect) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// MergeTextStyle merges an override onto base via the style package's
// identity-preserving, cached fast path.
func MergeTextStyle(base style.ResolvedStyle, override style.Override) style.ResolvedStyle {
	return style.Merge(base, override)
}

// RenderRichText converts markdown into terminal-ready text at width w
// using glamour, falling back to the raw source on render failure (the
// renderer must never abort the frame over malformed markdown).
func RenderRichText(src string, w int) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(w))
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return out
}

// HighlightCode syntax-highlights src for lang using chroma, writing ANSI
// escapes suitable for direct drawText emission. Falls back to the raw
// source on failure.
func HighlightCode(src, lang string) string {
	var buf chromaBuffer
	if err := chromaquick.Highlight(&buf, src, lang, "terminal256", "monokai"); err != nil {
		return src
	}
	return buf.String()
}

// chromaBuffer adapts chroma's io.Writer requirement without importing
// bytes at the package level twice.
type chromaBuffer struct{ data []byte }

func (b *chromaBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
func (b *chromaBuffer) String() string { return string(b.data) }

// DiffLines computes a line-level diff via go-diff for diffViewer widgets.
func DiffLines(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	wSrc, wDst, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(wSrc, wDst, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return diffs
}
