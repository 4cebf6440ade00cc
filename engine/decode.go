// Package engine decodes a backend's wire-encoded event batch into
// router-ready events, enforcing timeMs monotonicity within and across
// batches.
package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/wwsheng009/tuirun/backend"
)

// event kind tags on the wire, matching backend.RawEvent.Kind strings.
const (
	kindKey    = 0
	kindText   = 1
	kindMouse  = 2
	kindResize = 3
	kindPaste  = 4
	kindTick   = 5
	kindUser   = 6
	kindFatal  = 7
)

// Decoder tracks the last timeMs seen across batches so a new batch's
// leading events clamp forward even if the backend's clock regressed.
type Decoder struct {
	lastTimeMs int64
}

// NewDecoder returns a decoder with no prior batch history.
func NewDecoder() *Decoder { return &Decoder{} }

// DecodeBatch decodes a contiguous run of wire-encoded events. It is a
// decode-only contract: malformed bytes are a programming/backend bug,
// reported as an error rather than silently producing zero values.
//
// Layout per event: kind(u8) timeMs(i64) kind-specific fields. All fields
// are fixed-width except the paste payload, which is a u32 byte length
// followed by that many bytes.
func (d *Decoder) DecodeBatch(raw []byte) (backend.EventBatch, error) {
	var batch backend.EventBatch
	off := 0
	for off < len(raw) {
		ev, n, err := decodeOne(raw[off:])
		if err != nil {
			return backend.EventBatch{}, fmt.Errorf("engine: decode event at offset %d: %w", off, err)
		}
		off += n

		if ev.TimeMs < d.lastTimeMs {
			ev.TimeMs = d.lastTimeMs
		}
		d.lastTimeMs = ev.TimeMs

		batch.Events = append(batch.Events, ev)
	}
	return batch, nil
}

func decodeOne(b []byte) (backend.RawEvent, int, error) {
	if len(b) < 9 {
		return backend.RawEvent{}, 0, fmt.Errorf("short header: need 9 bytes, have %d", len(b))
	}
	kind := b[0]
	timeMs := int64(binary.LittleEndian.Uint64(b[1:9]))
	off := 9

	ev := backend.RawEvent{TimeMs: timeMs}

	switch kind {
	case kindKey:
		if len(b) < off+4 {
			return ev, 0, fmt.Errorf("short key event")
		}
		ev.Kind = "key"
		ev.Key = binary.LittleEndian.Uint16(b[off:])
		ev.Mods = b[off+2]
		ev.Action = actionName(b[off+3])
		off += 4

	case kindText:
		if len(b) < off+4 {
			return ev, 0, fmt.Errorf("short text event")
		}
		ev.Kind = "text"
		ev.Codepoint = binary.LittleEndian.Uint32(b[off:])
		off += 4

	case kindMouse:
		if len(b) < off+12 {
			return ev, 0, fmt.Errorf("short mouse event")
		}
		ev.Kind = "mouse"
		ev.X = int(int16(binary.LittleEndian.Uint16(b[off:])))
		ev.Y = int(int16(binary.LittleEndian.Uint16(b[off+2:])))
		ev.MouseKind = int(b[off+4])
		ev.Mods = b[off+5]
		ev.Buttons = b[off+6]
		ev.WheelX = int(int16(binary.LittleEndian.Uint16(b[off+8:])))
		ev.WheelY = int(int16(binary.LittleEndian.Uint16(b[off+10:])))
		off += 12

	case kindResize:
		if len(b) < off+4 {
			return ev, 0, fmt.Errorf("short resize event")
		}
		ev.Kind = "resize"
		ev.Cols = int(binary.LittleEndian.Uint16(b[off:]))
		ev.Rows = int(binary.LittleEndian.Uint16(b[off+2:]))
		off += 4

	case kindPaste:
		if len(b) < off+4 {
			return ev, 0, fmt.Errorf("short paste length prefix")
		}
		n := int(binary.LittleEndian.Uint32(b[off:]))
		off += 4
		if len(b) < off+n {
			return ev, 0, fmt.Errorf("short paste payload")
		}
		ev.Kind = "paste"
		ev.Detail = string(b[off : off+n])
		off += n

	case kindTick:
		if len(b) < off+4 {
			return ev, 0, fmt.Errorf("short tick event")
		}
		ev.Kind = "tick"
		ev.DtMs = binary.LittleEndian.Uint32(b[off:])
		off += 4

	case kindUser, kindFatal:
		if kind == kindUser {
			ev.Kind = "user"
		} else {
			ev.Kind = "fatal"
		}

	default:
		return ev, 0, fmt.Errorf("unknown event kind tag %d", kind)
	}

	return ev, off, nil
}

func actionName(b byte) string {
	switch b {
	case 0:
		return "down"
	case 1:
		return "up"
	case 2:
		return "repeat"
	default:
		return "down"
	}
}
