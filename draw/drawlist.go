// Package draw implements the DrawlistBuilder: a linear binary op buffer
// that the renderer appends to and the backend consumes, plus the
// text-run blob dedup table.
package draw

import (
	"encoding/binary"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/wwsheng009/tuirun/style"
)

// Op tags the binary encoding of each drawlist entry.
type Op byte

const (
	OpClearTo Op = iota
	OpFillRect
	OpDrawText
	OpPushClip
	OpPopClip
	OpSetCursor
	OpDrawTextRun
)

// CursorShape enumerates the cursor shapes a v2 backend can render.
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorBar
	CursorUnderline
)

// Cursor is the v2 setCursor payload.
type Cursor struct {
	X, Y    int
	Shape   CursorShape
	Visible bool
	Blink   bool
}

// FailureCode enumerates build() failure categories.
type FailureCode string

const (
	FailureTooLarge FailureCode = "TOO_LARGE"
	FailureInternal FailureCode = "INTERNAL"
)

// Failure is a structured build() error.
type Failure struct {
	Code   FailureCode
	Detail string
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %s", f.Code, f.Detail) }

// MaxBytes bounds a single frame's drawlist; build() refuses to exceed it.
const MaxBytes = 4 << 20

// textRun is one dedup-table entry: a sequence of (text, style) segments.
type textRun struct {
	segments []Segment
}

// Segment is one run of text sharing a single style within a text-run blob.
type Segment struct {
	Text  string
	Style style.ResolvedStyle
}

// Builder accumulates drawlist ops for a single frame. It is exclusively
// owned per frame and reused across frames via Reset.
type Builder struct {
	buf       []byte
	opCount   int
	clipDepth int
	built     bool

	runs    []textRun
	runSeen map[string]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{runSeen: map[string]int{}} }

func (b *Builder) appendOp(op Op) {
	b.buf = append(b.buf, byte(op))
	b.opCount++
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendStyle(buf []byte, s style.ResolvedStyle) []byte {
	rgb := s.Fg
	buf = append(buf, rgb.R, rgb.G, rgb.B)
	rgb = s.Bg
	buf = append(buf, rgb.R, rgb.G, rgb.B)
	buf = append(buf, byte(boolByte(s.Bold.Bool())), byte(boolByte(s.Italic.Bool())))
	return buf
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ClearTo clears the frame to (cols, rows) filled with baseStyle.
func (b *Builder) ClearTo(cols, rows int, baseStyle style.ResolvedStyle) {
	b.appendOp(OpClearTo)
	b.buf = appendUint32(b.buf, uint32(cols))
	b.buf = appendUint32(b.buf, uint32(rows))
	b.buf = appendStyle(b.buf, baseStyle)
}

// FillRect fills (x, y, w, h) with st.
func (b *Builder) FillRect(x, y, w, h int, st style.ResolvedStyle) {
	b.appendOp(OpFillRect)
	for _, v := range []int{x, y, w, h} {
		b.buf = appendUint32(b.buf, uint32(v))
	}
	b.buf = appendStyle(b.buf, st)
}

// DrawText draws text at (x, y) with st.
func (b *Builder) DrawText(x, y int, text string, st style.ResolvedStyle) {
	b.appendOp(OpDrawText)
	b.buf = appendUint32(b.buf, uint32(x))
	b.buf = appendUint32(b.buf, uint32(y))
	b.buf = appendString(b.buf, text)
	b.buf = appendStyle(b.buf, st)
}

// PushClip pushes a clip rect, incrementing the balance depth.
func (b *Builder) PushClip(x, y, w, h int) {
	b.appendOp(OpPushClip)
	for _, v := range []int{x, y, w, h} {
		b.buf = appendUint32(b.buf, uint32(v))
	}
	b.clipDepth++
}

// PopClip pops the most recent clip. Returns an error if called beneath
// depth 0 (unbalanced).
func (b *Builder) PopClip() error {
	if b.clipDepth <= 0 {
		return &Failure{Code: FailureInternal, Detail: "popClip beneath depth 0"}
	}
	b.appendOp(OpPopClip)
	b.clipDepth--
	return nil
}

// ClipDepth returns the current clip nesting depth (for subtree balance
// assertions in the renderer).
func (b *Builder) ClipDepth() int { return b.clipDepth }

// SetCursor emits a v2 setCursor op.
func (b *Builder) SetCursor(c Cursor) {
	b.appendOp(OpSetCursor)
	b.buf = appendUint32(b.buf, uint32(c.X))
	b.buf = appendUint32(b.buf, uint32(c.Y))
	b.buf = append(b.buf, byte(c.Shape), byte(boolByte(c.Visible)), byte(boolByte(c.Blink)))
}

// HideCursor emits a v2 setCursor op with Visible: false.
func (b *Builder) HideCursor() {
	b.SetCursor(Cursor{Visible: false})
}

// runKey derives a stable dedup key for a run of segments.
func runKey(segments []Segment) string {
	key := ""
	for _, s := range segments {
		key += fmt.Sprintf("%s|%06x%06x|", s.Text, rgbInt(s.Style.Fg), rgbInt(s.Style.Bg))
	}
	return key
}

func rgbInt(c style.RGB) int { return int(c.R)<<16 | int(c.G)<<8 | int(c.B) }

// AddTextRunBlob registers segments in the dedup table, returning its
// index, or -1 if the builder declines (e.g. table already large).
func (b *Builder) AddTextRunBlob(segments []Segment) int {
	if len(b.runs) >= 4096 {
		return -1
	}
	key := runKey(segments)
	if idx, ok := b.runSeen[key]; ok {
		return idx
	}
	idx := len(b.runs)
	b.runs = append(b.runs, textRun{segments: segments})
	b.runSeen[key] = idx
	return idx
}

// DrawTextRun emits a reference to a previously registered blob at (x, y).
func (b *Builder) DrawTextRun(x, y, index int) error {
	if index < 0 || index >= len(b.runs) {
		return &Failure{Code: FailureInternal, Detail: "drawTextRun: unknown blob index"}
	}
	b.appendOp(OpDrawTextRun)
	b.buf = appendUint32(b.buf, uint32(x))
	b.buf = appendUint32(b.buf, uint32(y))
	b.buf = appendUint32(b.buf, uint32(index))
	return nil
}

// graphemeSafeSplit splits text at grapheme-cluster boundaries near width
// so a run can be truncated without cutting a multi-rune glyph in half.
func graphemeSafeSplit(text string, maxWidth int) string {
	g := uniseg.NewGraphemes(text)
	width := 0
	out := ""
	for g.Next() {
		cw := uniseg.StringWidth(g.Str())
		if width+cw > maxWidth {
			break
		}
		out += g.Str()
		width += cw
	}
	return out
}

// Build finalizes the accumulated ops into a frozen byte slice, marking the
// builder single-use until Reset. Refuses unbalanced clips and oversized
// frames.
func (b *Builder) Build() ([]byte, error) {
	if b.built {
		return nil, &Failure{Code: FailureInternal, Detail: "build() called twice without reset()"}
	}
	if b.clipDepth != 0 {
		return nil, &Failure{Code: FailureInternal, Detail: "unbalanced clip ops"}
	}
	if len(b.buf) > MaxBytes {
		return nil, &Failure{Code: FailureTooLarge, Detail: fmt.Sprintf("drawlist exceeds %d bytes", MaxBytes)}
	}
	b.built = true
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out, nil
}

// OpCount returns the number of ops appended this frame.
func (b *Builder) OpCount() int { return b.opCount }

// Reset clears the builder for the next frame, including the text-run
// dedup table (runs are not guaranteed stable across frames).
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.opCount = 0
	b.clipDepth = 0
	b.built = false
	b.runs = nil
	b.runSeen = map[string]int{}
}
