package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/wwsheng009/tuirun/backend"
)

// stdoutBackend is a minimal RuntimeBackend for the run demo: it prints a
// one-line diagnostic per frame instead of painting a real terminal. A
// genuine terminal engine is out of scope for this module.
type stdoutBackend struct {
	frameNum int
}

func newStdoutBackend() *stdoutBackend { return &stdoutBackend{} }

func (b *stdoutBackend) Start(ctx context.Context) error { return nil }
func (b *stdoutBackend) Stop(ctx context.Context) error  { return nil }
func (b *stdoutBackend) Dispose()                        {}

func (b *stdoutBackend) RequestFrame(ctx context.Context, bytes []byte) error {
	b.frameNum++
	fmt.Printf("%s frame %d: %s\n", color.GreenString("render"), b.frameNum, color.CyanString("%d bytes", len(bytes)))
	return nil
}

func (b *stdoutBackend) PollEvents(ctx context.Context) (backend.EventBatch, error) {
	<-ctx.Done()
	return backend.EventBatch{}, ctx.Err()
}

func (b *stdoutBackend) PostUserEvent(detail interface{}) {}

func (b *stdoutBackend) GetCaps(ctx context.Context) (backend.TerminalCaps, error) {
	return backend.ProbeCaps(1), nil
}

func (b *stdoutBackend) GetTerminalProfile(ctx context.Context) (backend.TerminalProfile, error) {
	return backend.TerminalProfile{Name: "tuirun-demo"}, nil
}

func (b *stdoutBackend) GetABI() backend.ABIInfo {
	return backend.ABIInfo{
		EngineABI:         backend.EngineABI,
		DrawlistVersion:   backend.DrawlistVersion,
		EventBatchVersion: backend.EventBatchVersion,
	}
}
