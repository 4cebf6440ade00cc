// Package layout implements the measure/layout passes that turn a committed
// instance tree into a LayoutTree of cell rects, plus the hit-testing walk
// used by the router.
package layout

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/wwsheng009/tuirun/instance"
	"github.com/wwsheng009/tuirun/vnode"
)

// Axis is the direction a container's children flow along.
type Axis int

const (
	AxisColumn Axis = iota
	AxisRow
)

// Justify controls main-axis distribution within the content rect.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
)

// Align controls cross-axis placement within the content rect.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Rect is a cell-space rectangle: left/top inclusive, right/bottom exclusive.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (px, py) falls within r, per the left/top
// inclusive, right/bottom exclusive convention used by hit testing.
func (r Rect) Contains(px, py int) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// Tree is the measured/positioned counterpart of an instance.Instance.
type Tree struct {
	InstanceID uint64
	Kind       vnode.Kind
	Rect       Rect
	ScrollX    int
	ScrollY    int
	Clipped    bool // true when this node's content is clipped (overflow != visible)
	Children   []*Tree
}

// FatalCode enumerates layout failure categories.
type FatalCode string

const (
	FatalInvalidProps FatalCode = "INVALID_PROPS"
	FatalInternal     FatalCode = "INTERNAL"
)

// Fatal is a structured layout failure.
type Fatal struct {
	Code   FatalCode
	Detail string
}

func (f *Fatal) Error() string { return fmt.Sprintf("%s: %s", f.Code, f.Detail) }

func fatalf(code FatalCode, format string, args ...interface{}) error {
	return &Fatal{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// insets is the resolved padding/border contribution on each edge.
type insets struct{ left, right, top, bottom int }

func (in insets) horizontal() int { return in.left + in.right }
func (in insets) vertical() int   { return in.top + in.bottom }

// cellWidth measures the printable width of s in terminal cells, using
// go-runewidth so wide (CJK) glyphs count as 2 and combining marks count
// as 0.
func cellWidth(s string) int {
	return runewidth.StringWidth(s)
}

// resolveInsets reads border/p/px/py/pl/pr/pt/pb from props. border adds one
// cell on every edge it is truthy for; p is a uniform shorthand overridden
// by the more specific px/py, which are in turn overridden by pl/pr/pt/pb.
func resolveInsets(p vnode.Props) insets {
	var in insets
	if v := p.Int("p", -1); v >= 0 {
		in.left, in.right, in.top, in.bottom = v, v, v, v
	}
	if v := p.Int("px", -1); v >= 0 {
		in.left, in.right = v, v
	}
	if v := p.Int("py", -1); v >= 0 {
		in.top, in.bottom = v, v
	}
	if v := p.Int("pl", -1); v >= 0 {
		in.left = v
	}
	if v := p.Int("pr", -1); v >= 0 {
		in.right = v
	}
	if v := p.Int("pt", -1); v >= 0 {
		in.top = v
	}
	if v := p.Int("pb", -1); v >= 0 {
		in.bottom = v
	}
	if p.Bool("border", false) {
		in.left++
		in.right++
		in.top++
		in.bottom++
	}
	return in
}

func axisOf(p vnode.Props, kind vnode.Kind) Axis {
	if kind == vnode.Row {
		return AxisRow
	}
	if kind == vnode.Column {
		return AxisColumn
	}
	if p.String("direction", "column") == "row" {
		return AxisRow
	}
	return AxisColumn
}

func justifyOf(p vnode.Props) Justify {
	switch p.String("justify", "start") {
	case "center":
		return JustifyCenter
	case "end":
		return JustifyEnd
	case "space-between":
		return JustifySpaceBetween
	case "space-around":
		return JustifySpaceAround
	default:
		return JustifyStart
	}
}

func alignOf(p vnode.Props) Align {
	align := p.String("align", p.String("items", "start"))
	switch align {
	case "center":
		return AlignCenter
	case "end":
		return AlignEnd
	case "stretch":
		return AlignStretch
	default:
		return AlignStart
	}
}

// resolveDimension interprets a width/height prop: literal cells, "N%" of
// available, "full" (== available), "auto" (intrinsic, signalled by -1), or
// absent (also intrinsic).
func resolveDimension(p vnode.Props, key string, available, intrinsic int) (int, error) {
	v, ok := p[key]
	if !ok {
		return intrinsic, nil
	}
	switch s := v.(type) {
	case string:
		switch s {
		case "full":
			return available, nil
		case "auto", "":
			return intrinsic, nil
		}
		if len(s) > 0 && s[len(s)-1] == '%' {
			var pct int
			if _, err := fmt.Sscanf(s, "%d%%", &pct); err != nil {
				return 0, fatalf(FatalInvalidProps, "invalid percent dimension %q for %s", s, key)
			}
			return available * pct / 100, nil
		}
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return 0, fatalf(FatalInvalidProps, "invalid literal dimension %q for %s", s, key)
		}
		return n, nil
	default:
		return p.Int(key, intrinsic), nil
	}
}

func clampMax(v int, p vnode.Props, key string) int {
	if max := p.Int(key, -1); max >= 0 && v > max {
		return max
	}
	return v
}

// flexOf reads grow/shrink/basis from a child's own props.
func flexOf(p vnode.Props) (grow, shrink, basis int, hasBasis bool) {
	grow = p.Int("flexGrow", 0)
	shrink = p.Int("flexShrink", 1)
	if v, ok := p["flexBasis"]; ok {
		hasBasis = true
		switch t := v.(type) {
		case string:
			if t != "auto" {
				fmt.Sscanf(t, "%d", &basis)
			} else {
				hasBasis = false
			}
		default:
			basis = p.Int("flexBasis", 0)
		}
	}
	return
}

// Measure computes the intrinsic/constrained size of a node (ignoring
// position), used both standalone and as the first pass of Layout.
func Measure(inst *instance.Instance, maxW, maxH int, axis Axis) (int, int, error) {
	if inst == nil {
		return 0, 0, nil
	}
	switch {
	case inst.Kind == vnode.Text:
		w := cellWidth(inst.Text)
		if w > maxW {
			w = maxW
		}
		return w, 1, nil
	case inst.Kind == vnode.Spacer:
		return 0, 0, nil
	case inst.Kind.IsContainer():
		return measureContainer(inst, maxW, maxH)
	default:
		w, err := resolveDimension(inst.Props, "width", maxW, minInt(maxW, cellWidth(inst.Text)))
		if err != nil {
			return 0, 0, err
		}
		h, err := resolveDimension(inst.Props, "height", maxH, 1)
		if err != nil {
			return 0, 0, err
		}
		return clampMax(w, inst.Props, "maxWidth"), clampMax(h, inst.Props, "maxHeight"), nil
	}
}

func measureContainer(inst *instance.Instance, maxW, maxH int) (int, int, error) {
	in := resolveInsets(inst.Props)
	ax := axisOf(inst.Props, inst.Kind)
	gap := inst.Props.Int("gap", 0)

	contentW := maxW - in.horizontal()
	contentH := maxH - in.vertical()

	var mainTotal, crossMax int
	contributing := 0
	for _, child := range inst.Children {
		abs, err := positionOf(child.Props)
		if err != nil {
			return 0, 0, err
		}
		if abs {
			continue
		}
		cw, ch, err := Measure(child, contentW, contentH, ax)
		if err != nil {
			return 0, 0, err
		}
		if ax == AxisRow {
			mainTotal += cw
			if ch > crossMax {
				crossMax = ch
			}
		} else {
			mainTotal += ch
			if cw > crossMax {
				crossMax = cw
			}
		}
		if cw > 0 || ch > 0 {
			contributing++
		}
	}
	if contributing > 1 {
		mainTotal += gap * (contributing - 1)
	}

	var w, h int
	if ax == AxisRow {
		w, h = mainTotal+in.horizontal(), crossMax+in.vertical()
	} else {
		w, h = crossMax+in.horizontal(), mainTotal+in.vertical()
	}

	rw, err := resolveDimension(inst.Props, "width", maxW, w)
	if err != nil {
		return 0, 0, err
	}
	rh, err := resolveDimension(inst.Props, "height", maxH, h)
	if err != nil {
		return 0, 0, err
	}
	rw = clampMax(rw, inst.Props, "maxWidth")
	rh = clampMax(rh, inst.Props, "maxHeight")
	if rw > maxW {
		rw = maxW
	}
	if rh > maxH {
		rh = maxH
	}
	return rw, rh, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Layout measures and positions inst within (x, y, maxW, maxH), returning a
// Tree of resolved rects. A container root without an explicit width or
// height fills maxW or maxH on that axis. It is pure: identical inputs
// yield identical output trees.
func Layout(inst *instance.Instance, x, y, maxW, maxH int, axis Axis) (*Tree, error) {
	if inst == nil {
		return nil, nil
	}
	w, h, err := Measure(inst, maxW, maxH, axis)
	if err != nil {
		return nil, err
	}
	if inst.Kind.IsContainer() {
		if !inst.Props.Has("width") {
			w = maxW
		}
		if !inst.Props.Has("height") {
			h = maxH
		}
	}
	t := &Tree{InstanceID: inst.ID, Kind: inst.Kind, Rect: Rect{X: x, Y: y, W: w, H: h}}
	if !inst.Kind.IsContainer() {
		return t, nil
	}
	if err := layoutChildren(inst, t); err != nil {
		return nil, err
	}
	return t, nil
}

// flowChild is a container child participating in normal flow layout.
type flowChild struct {
	inst        *instance.Instance
	w, h        int
	grow, shrink, basis int
	hasBasis    bool
}

func layoutChildren(inst *instance.Instance, t *Tree) error {
	in := resolveInsets(inst.Props)
	ax := axisOf(inst.Props, inst.Kind)
	gap := inst.Props.Int("gap", 0)
	justify := justifyOf(inst.Props)
	align := alignOf(inst.Props)
	overflow := inst.Props.String("overflow", "visible")

	contentX := t.Rect.X + in.left
	contentY := t.Rect.Y + in.top
	contentW := t.Rect.W - in.horizontal()
	contentH := t.Rect.H - in.vertical()
	if contentW < 0 {
		contentW = 0
	}
	if contentH < 0 {
		contentH = 0
	}

	var flow []flowChild
	var absolute []*instance.Instance

	for _, child := range inst.Children {
		abs, err := positionOf(child.Props)
		if err != nil {
			return err
		}
		if abs {
			absolute = append(absolute, child)
			continue
		}
		cw, ch, err := Measure(child, contentW, contentH, ax)
		if err != nil {
			return err
		}
		grow, shrink, basis, hasBasis := flexOf(child.Props)
		flow = append(flow, flowChild{inst: child, w: cw, h: ch, grow: grow, shrink: shrink, basis: basis, hasBasis: hasBasis})
	}

	// Flex redistribution along the main axis.
	mainSize := func(fc flowChild) int {
		if fc.hasBasis {
			return fc.basis
		}
		if ax == AxisRow {
			return fc.w
		}
		return fc.h
	}
	contributing := 0
	fixedTotal := 0
	growTotal := 0
	shrinkTotal := 0
	for _, fc := range flow {
		ms := mainSize(fc)
		if ms > 0 {
			contributing++
		}
		fixedTotal += ms
		growTotal += fc.grow
		if fc.shrink > 0 {
			shrinkTotal += fc.shrink
		}
	}
	gapTotal := 0
	if contributing > 1 {
		gapTotal = gap * (contributing - 1)
	}
	mainAvail := contentW
	if ax != AxisRow {
		mainAvail = contentH
	}
	remaining := mainAvail - fixedTotal - gapTotal

	finalMain := make([]int, len(flow))
	for i, fc := range flow {
		ms := mainSize(fc)
		switch {
		case remaining > 0 && fc.grow > 0 && growTotal > 0:
			finalMain[i] = ms + remaining*fc.grow/growTotal
		case remaining < 0 && fc.shrink > 0 && shrinkTotal > 0:
			finalMain[i] = ms + remaining*fc.shrink/shrinkTotal
		default:
			finalMain[i] = ms
		}
		if finalMain[i] < 0 {
			finalMain[i] = 0
		}
	}

	// Cross-axis size, honoring stretch.
	finalCross := make([]int, len(flow))
	crossAvail := contentH
	if ax != AxisRow {
		crossAvail = contentW
	}
	for i, fc := range flow {
		cs := fc.h
		if ax != AxisRow {
			cs = fc.w
		}
		if align == AlignStretch {
			cs = crossAvail
		}
		finalCross[i] = cs
	}

	// Main-axis start offset and extra gap for justify.
	usedMain := 0
	for _, m := range finalMain {
		usedMain += m
	}
	usedMain += gapTotal
	free := mainAvail - usedMain
	if free < 0 {
		free = 0
	}
	mainStart := 0
	extraGap := 0
	switch justify {
	case JustifyCenter:
		mainStart = free / 2
	case JustifyEnd:
		mainStart = free
	case JustifySpaceBetween:
		if contributing > 1 {
			extraGap = free / (contributing - 1)
		}
	case JustifySpaceAround:
		if contributing > 0 {
			extraGap = free / contributing
			mainStart = extraGap / 2
		}
	}

	t.Children = make([]*Tree, len(inst.Children))
	flowIdx := 0
	mainPos := mainStart
	for ci, child := range inst.Children {
		// Already validated (and, if invalid, already returned) in the
		// flow/absolute split above; err is always nil here.
		abs, _ := positionOf(child.Props)
		if abs {
			continue
		}
		fc := flow[flowIdx]
		m := finalMain[flowIdx]
		c := finalCross[flowIdx]

		crossStart := 0
		switch align {
		case AlignCenter:
			crossStart = (crossAvail - c) / 2
		case AlignEnd:
			crossStart = crossAvail - c
		}

		var cx, cy, cw, ch int
		if ax == AxisRow {
			cx, cy = contentX+mainPos, contentY+crossStart
			cw, ch = m, c
		} else {
			cx, cy = contentX+crossStart, contentY+mainPos
			cw, ch = c, m
		}

		childTree, err := layoutPositioned(fc.inst, cx, cy, cw, ch, ax)
		if err != nil {
			return err
		}
		t.Children[ci] = childTree

		if m > 0 {
			mainPos += m + gap + extraGap
		}
		flowIdx++
	}

	for _, child := range absolute {
		childTree, err := layoutAbsolute(child, contentX, contentY, contentW, contentH, ax)
		if err != nil {
			return err
		}
		idx := childIndex(inst, child)
		t.Children[idx] = childTree
	}

	applyOverflow(t, overflow, inst.Props)
	return nil
}

func childIndex(parent *instance.Instance, child *instance.Instance) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// layoutPositioned lays out a normal-flow child given its already-resolved
// rect, recursing into its own children if it's a container.
func layoutPositioned(inst *instance.Instance, x, y, w, h int, axis Axis) (*Tree, error) {
	t := &Tree{InstanceID: inst.ID, Kind: inst.Kind, Rect: Rect{X: x, Y: y, W: w, H: h}}
	if !inst.Kind.IsContainer() {
		return t, nil
	}
	if err := layoutChildren(inst, t); err != nil {
		return nil, err
	}
	return t, nil
}

// positionOf validates the position prop's enum (only "" or "absolute" are
// legal) and reports whether p is absolutely positioned. Called on every
// layout path a node can take (flow measurement and flow placement, not
// just layoutAbsolute) so an invalid value is always fatal, never silently
// routed into ordinary flow layout.
func positionOf(p vnode.Props) (bool, error) {
	pos, ok := p["position"]
	if !ok {
		return false, nil
	}
	s, _ := pos.(string)
	if s == "" {
		return false, nil
	}
	if s != "absolute" {
		return false, fatalf(FatalInvalidProps, "invalid position %q", s)
	}
	return true, nil
}

// layoutAbsolute resolves an absolutely positioned child against the
// parent's content rect per spec: explicit size wins; top+bottom (or
// left+right) without an explicit size stretches across.
func layoutAbsolute(inst *instance.Instance, originX, originY, availW, availH int, axis Axis) (*Tree, error) {
	p := inst.Props

	hasLeft, left := intProp(p, "left")
	hasRight, right := intProp(p, "right")
	hasTop, top := intProp(p, "top")
	hasBottom, bottom := intProp(p, "bottom")
	hasWidth, width := intProp(p, "width")
	hasHeight, height := intProp(p, "height")

	var x, y, w, h int
	switch {
	case hasWidth:
		w = width
	case hasLeft && hasRight:
		w = availW - left - right
	default:
		iw, _, err := Measure(inst, availW, availH, axis)
		if err != nil {
			return nil, err
		}
		w = iw
	}
	switch {
	case hasHeight:
		h = height
	case hasTop && hasBottom:
		h = availH - top - bottom
	default:
		_, ih, err := Measure(inst, availW, availH, axis)
		if err != nil {
			return nil, err
		}
		h = ih
	}

	switch {
	case hasLeft:
		x = originX + left
	case hasRight:
		x = originX + availW - right - w
	default:
		x = originX
	}
	switch {
	case hasTop:
		y = originY + top
	case hasBottom:
		y = originY + availH - bottom - h
	default:
		y = originY
	}

	t := &Tree{InstanceID: inst.ID, Kind: inst.Kind, Rect: Rect{X: x, Y: y, W: w, H: h}}
	if inst.Kind.IsContainer() {
		if err := layoutChildren(inst, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func intProp(p vnode.Props, key string) (bool, int) {
	v, ok := p[key]
	if !ok {
		return false, 0
	}
	s, isStr := v.(string)
	if isStr {
		return false, 0 // a string offset is treated as absent; it is not reported as INVALID_PROPS
	}
	_ = s
	return true, p.Int(key, 0)
}

// applyOverflow computes the clamped scroll offsets for overflow:"scroll"
// or "hidden" containers and records the clip flag. overflow:"visible"
// leaves the tree unclipped.
func applyOverflow(t *Tree, overflow string, p vnode.Props) {
	if overflow != "scroll" && overflow != "hidden" {
		return
	}
	t.Clipped = true

	contentExtentX, contentExtentY := t.Rect.X, t.Rect.Y
	for _, c := range t.Children {
		if c == nil {
			continue
		}
		if c.Rect.X+c.Rect.W > contentExtentX {
			contentExtentX = c.Rect.X + c.Rect.W
		}
		if c.Rect.Y+c.Rect.H > contentExtentY {
			contentExtentY = c.Rect.Y + c.Rect.H
		}
	}
	extentW := contentExtentX - t.Rect.X
	extentH := contentExtentY - t.Rect.Y

	clamp := func(req, extent, viewport int) int {
		maxScroll := extent - viewport
		if maxScroll < 0 {
			maxScroll = 0
		}
		if req < 0 {
			return 0
		}
		if req > maxScroll {
			return maxScroll
		}
		return req
	}
	scrollX := clamp(p.Int("scrollX", 0), extentW, t.Rect.W)
	scrollY := clamp(p.Int("scrollY", 0), extentH, t.Rect.H)
	t.ScrollX, t.ScrollY = scrollX, scrollY

	if scrollX == 0 && scrollY == 0 {
		return
	}
	shiftTree(t, scrollX, scrollY)
}

func shiftTree(t *Tree, dx, dy int) {
	for _, c := range t.Children {
		if c == nil {
			continue
		}
		c.Rect.X -= dx
		c.Rect.Y -= dy
		shiftTree(c, dx, dy)
	}
}

// focusable is the set of kinds that participate in hit-testing for focus
// (mirrors the kinds computeFocusList in the focus package considers).
var focusable = map[vnode.Kind]bool{
	vnode.Button: true, vnode.Input: true, vnode.Select: true,
	vnode.Checkbox: true, vnode.RadioGroup: true, vnode.Tree: true,
	vnode.Table: true, vnode.VirtualList: true, vnode.CommandPalette: true,
	vnode.Dropdown: true, vnode.FilePicker: true, vnode.FileTreeExplorer: true,
	vnode.CodeEditor: true, vnode.DiffViewer: true, vnode.LogsConsole: true,
}

// HitTestFocusable walks tree later-first (last child wins ties), honoring
// accumulated ancestor clip bounds, and returns the topmost focusable
// instance id under (x, y), or 0 if none.
func HitTestFocusable(root *Tree, x, y int) uint64 {
	return hitTest(root, x, y, root.Rect)
}

func hitTest(t *Tree, x, y int, clip Rect) uint64 {
	if t == nil {
		return 0
	}
	bounds := intersect(clip, t.Rect)
	if !bounds.Contains(x, y) {
		return 0
	}
	childClip := bounds
	if !t.Clipped {
		childClip = clip
	}
	for i := len(t.Children) - 1; i >= 0; i-- {
		if id := hitTest(t.Children[i], x, y, childClip); id != 0 {
			return id
		}
	}
	if focusable[t.Kind] && t.Rect.W > 0 && t.Rect.H > 0 {
		return t.InstanceID
	}
	return 0
}

func intersect(a, b Rect) Rect {
	x1 := maxInt(a.X, b.X)
	y1 := maxInt(a.Y, b.Y)
	x2 := minInt(a.X+a.W, b.X+b.W)
	y2 := minInt(a.Y+a.H, b.Y+b.H)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
