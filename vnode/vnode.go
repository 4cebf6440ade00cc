// Package vnode defines the immutable declarative VNode tree that
// application view functions produce each frame. VNodes are freely shared
// across frames (value semantics; never mutated after construction).
package vnode

import "github.com/spf13/cast"

// Kind is the closed set of node kinds. Using a string-backed enum instead
// of a duck-typed props bag keeps container/basic/collection dispatch an
// exhaustive switch in layout, commit, and render.
type Kind string

const (
	Row                Kind = "row"
	Column             Kind = "column"
	Box                Kind = "box"
	Text               Kind = "text"
	Button             Kind = "button"
	Input              Kind = "input"
	Select             Kind = "select"
	Checkbox           Kind = "checkbox"
	RadioGroup         Kind = "radioGroup"
	Field              Kind = "field"
	Spacer             Kind = "spacer"
	RichText           Kind = "richText"
	Badge              Kind = "badge"
	Spinner            Kind = "spinner"
	Progress           Kind = "progress"
	Skeleton           Kind = "skeleton"
	Icon               Kind = "icon"
	Kbd                Kind = "kbd"
	Status             Kind = "status"
	Tag                Kind = "tag"
	Gauge              Kind = "gauge"
	Empty              Kind = "empty"
	ErrorDisplay       Kind = "errorDisplay"
	Callout            Kind = "callout"
	Sparkline          Kind = "sparkline"
	BarChart           Kind = "barChart"
	MiniChart          Kind = "miniChart"
	VirtualList        Kind = "virtualList"
	Table              Kind = "table"
	Tree               Kind = "tree"
	FilePicker         Kind = "filePicker"
	FileTreeExplorer   Kind = "fileTreeExplorer"
	Dropdown           Kind = "dropdown"
	CommandPalette     Kind = "commandPalette"
	ToolApprovalDialog Kind = "toolApprovalDialog"
	ToastContainer     Kind = "toastContainer"
	CodeEditor         Kind = "codeEditor"
	DiffViewer         Kind = "diffViewer"
	LogsConsole        Kind = "logsConsole"
	Modal              Kind = "modal"
	FocusZone          Kind = "focusZone"
	FocusTrap          Kind = "focusTrap"
	Layers             Kind = "layers"
	Layer              Kind = "layer"
	PanelGroup         Kind = "panelGroup"
	ResizablePanel     Kind = "resizablePanel"
	SplitPane          Kind = "splitPane"
	Divider            Kind = "divider"
)

// containerKinds produce layout structure from children and have no
// intrinsic leaf content of their own.
var containerKinds = map[Kind]bool{
	Row: true, Column: true, Box: true, FocusZone: true, FocusTrap: true,
	Layers: true, Layer: true, PanelGroup: true, ResizablePanel: true,
	SplitPane: true, Modal: true,
}

// collectionKinds browse a data source rather than a fixed children slice.
var collectionKinds = map[Kind]bool{
	VirtualList: true, Table: true, Tree: true, FilePicker: true,
	FileTreeExplorer: true, CommandPalette: true, Dropdown: true,
}

// IsContainer reports whether kind lays out fixed children.
func (k Kind) IsContainer() bool { return containerKinds[k] }

// IsCollection reports whether kind renders from a data source.
func (k Kind) IsCollection() bool { return collectionKinds[k] }

// Props is a loosely typed property bag. Values typically arrive as
// interface{} from host application code (JSON-ish numbers, strings);
// the String/Int/Float/Bool accessors coerce them with cast so layout/render code never deals
// with raw interface{} assertions.
type Props map[string]interface{}

// String returns the prop as a string, or def if absent/unconvertible.
func (p Props) String(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// Int returns the prop as an int, or def if absent/unconvertible.
func (p Props) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

// Float returns the prop as a float64, or def if absent/unconvertible.
func (p Props) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// Bool returns the prop as a bool, or def if absent/unconvertible.
func (p Props) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// Has reports whether key is present in the prop bag at all.
func (p Props) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Node is an immutable node in the declarative VNode tree.
type Node struct {
	Kind     Kind
	Props    Props
	Children []Node
	Text     string
}

// Key returns the explicit reconciliation key, if any ("" means none —
// structural identity falls back to (kind, position)).
func (n Node) Key() string {
	return n.Props.String("key", "")
}

// Disabled reports the node's disabled prop, used by focus-list
// computation.
func (n Node) Disabled() bool {
	return n.Props.Bool("disabled", false)
}
