// Package backend defines the RuntimeBackend contract the scheduler
// drives: frame submission, event polling, capability probing, and the
// ABI pin check performed once at startup.
package backend

import (
	"context"
	"fmt"

	"github.com/blang/semver"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// EngineABI is the drawlist/event-batch ABI this runtime build was
// compiled against. A backend whose advertised ABI fails CheckABI is
// rejected at startup with BACKEND_UNSUPPORTED.
var EngineABI = semver.MustParse("1.0.0")

// DrawlistVersion and EventBatchVersion pin the wire formats this
// runtime emits/expects; bumped only on a breaking layout change.
const (
	DrawlistVersion   = 1
	EventBatchVersion = 1
)

// ABIInfo is what a backend advertises at startup.
type ABIInfo struct {
	EngineABI         semver.Version
	DrawlistVersion   int
	EventBatchVersion int
}

// CheckABI compares a backend's advertised ABI against this build's
// pin. Only the major version must match (semver compatible-change
// contract); drawlist/event-batch versions must match exactly.
func CheckABI(info ABIInfo) error {
	if info.EngineABI.Major != EngineABI.Major {
		return &UnsupportedError{
			Code:     "BACKEND_UNSUPPORTED",
			Expected: EngineABI.String(),
			Detected: info.EngineABI.String(),
		}
	}
	if info.DrawlistVersion != DrawlistVersion {
		return &UnsupportedError{
			Code:     "BACKEND_UNSUPPORTED",
			Expected: fmt.Sprintf("drawlistVersion=%d", DrawlistVersion),
			Detected: fmt.Sprintf("drawlistVersion=%d", info.DrawlistVersion),
		}
	}
	if info.EventBatchVersion != EventBatchVersion {
		return &UnsupportedError{
			Code:     "BACKEND_UNSUPPORTED",
			Expected: fmt.Sprintf("eventBatchVersion=%d", EventBatchVersion),
			Detected: fmt.Sprintf("eventBatchVersion=%d", info.EventBatchVersion),
		}
	}
	return nil
}

// UnsupportedError is a structured, actionable ABI-mismatch diagnostic.
type UnsupportedError struct {
	Code     string
	Expected string
	Detected string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: runtime expects %s, backend advertises %s", e.Code, e.Expected, e.Detected)
}

// TerminalCaps describes what the attached terminal supports.
type TerminalCaps struct {
	IsTTY          bool
	Width, Height  int
	TrueColor      bool
	CursorV2       bool
	SupportsMouse  bool
}

// TerminalProfile is an optional richer capability report a backend may
// supply beyond TerminalCaps.
type TerminalProfile struct {
	Name    string
	Version string
}

// ProbeCaps inspects the given fd for TTY-ness and queries its size via
// golang.org/x/term. Non-TTY fds (pipes, CI) get a conservative caps
// report with SupportsMouse/CursorV2 false.
func ProbeCaps(fd uintptr) TerminalCaps {
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return TerminalCaps{IsTTY: false, Width: 80, Height: 24}
	}
	w, h, err := term.GetSize(int(fd))
	if err != nil {
		w, h = 80, 24
	}
	return TerminalCaps{IsTTY: true, Width: w, Height: h, TrueColor: true, CursorV2: true, SupportsMouse: true}
}

// EventBatch is the decoded, ordered sequence of events from one
// pollEvents resolution.
type EventBatch struct {
	Events []RawEvent
}

// RawEvent is one decode-only wire event, kind-discriminated.
type RawEvent struct {
	Kind   string // "key"|"text"|"mouse"|"resize"|"paste"|"tick"|"user"|"fatal"
	TimeMs int64

	Key    uint16
	Mods   uint8
	Action string // "down"|"up"|"repeat"

	Codepoint uint32

	X, Y               int
	MouseKind          int
	Buttons            uint8
	WheelX, WheelY     int

	Cols, Rows int

	DtMs uint32

	Detail interface{}
}

// RuntimeBackend is the contract the scheduler drives. The runtime
// never shares mutable state with a backend; every call crosses
// through opaque bytes or value types.
type RuntimeBackend interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Dispose()

	// RequestFrame submits drawlist bytes and resolves once the
	// backend has acknowledged presenting them.
	RequestFrame(ctx context.Context, bytes []byte) error

	// PollEvents blocks until at least one event is available or the
	// backend shuts down.
	PollEvents(ctx context.Context) (EventBatch, error)

	// PostUserEvent injects an in-process synthetic event, delivered
	// on a subsequent PollEvents resolution.
	PostUserEvent(detail interface{})

	GetCaps(ctx context.Context) (TerminalCaps, error)
	GetTerminalProfile(ctx context.Context) (TerminalProfile, error)

	GetABI() ABIInfo
}
