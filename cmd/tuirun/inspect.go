package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wwsheng009/tuirun/draw"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <drawlist-file>",
	Short: "Inspect a captured drawlist file",
	Long:  "Walks a raw drawlist byte dump (as produced by draw.Builder.Build) and reports op counts and total size.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	counts, err := countOps(data)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("Drawlist Inspection: %s\n", path)
	fmt.Printf("%s\n", strings.Repeat("-", 60))
	fmt.Printf("Total bytes: %s\n", color.CyanString("%d", len(data)))
	for _, name := range opNameOrder {
		if n := counts[name]; n > 0 {
			fmt.Printf("  %-14s %d\n", name, n)
		}
	}
	fmt.Printf("%s\n", strings.Repeat("-", 60))
	return nil
}

var opNameOrder = []string{"clearTo", "fillRect", "drawText", "pushClip", "popClip", "setCursor", "drawTextRun"}

var opNames = map[draw.Op]string{
	draw.OpClearTo:    "clearTo",
	draw.OpFillRect:   "fillRect",
	draw.OpDrawText:   "drawText",
	draw.OpPushClip:   "pushClip",
	draw.OpPopClip:    "popClip",
	draw.OpSetCursor:  "setCursor",
	draw.OpDrawTextRun: "drawTextRun",
}

// countOps walks a drawlist's op stream counting each op kind. It mirrors
// draw.Builder's own encoding (op byte, then kind-specific fixed/
// length-prefixed fields) without needing a shared decode entry point in
// the draw package, since this tool is a read-only diagnostic.
func countOps(data []byte) (map[string]int, error) {
	counts := map[string]int{}
	off := 0
	for off < len(data) {
		op := draw.Op(data[off])
		off++
		name, ok := opNames[op]
		if !ok {
			return nil, fmt.Errorf("unknown op tag %d at offset %d", op, off-1)
		}
		counts[name]++

		var err error
		off, err = skipOpBody(data, off, op)
		if err != nil {
			return nil, fmt.Errorf("op %s at offset %d: %w", name, off, err)
		}
	}
	return counts, nil
}

func readUint32(data []byte, off int) (uint32, int, error) {
	if off+4 > len(data) {
		return 0, off, fmt.Errorf("short uint32 field")
	}
	return binary.LittleEndian.Uint32(data[off:]), off + 4, nil
}

func skipOpBody(data []byte, off int, op draw.Op) (int, error) {
	switch op {
	case draw.OpClearTo:
		return skipN(data, off, 4+4+8)
	case draw.OpFillRect:
		return skipN(data, off, 4*4+8)
	case draw.OpDrawText:
		_, off, err := readUint32(data, off)
		if err != nil {
			return off, err
		}
		_, off, err = readUint32(data, off)
		if err != nil {
			return off, err
		}
		n, off, err := readUint32(data, off)
		if err != nil {
			return off, err
		}
		off += int(n)
		return skipN(data, off, 8)
	case draw.OpPushClip:
		return skipN(data, off, 4*4)
	case draw.OpPopClip:
		return off, nil
	case draw.OpSetCursor:
		return skipN(data, off, 4+4+3)
	case draw.OpDrawTextRun:
		return skipN(data, off, 4*3)
	default:
		return off, fmt.Errorf("unhandled op %d", op)
	}
}

func skipN(data []byte, off, n int) (int, error) {
	if off+n > len(data) {
		return off, fmt.Errorf("short op body: need %d bytes, have %d", n, len(data)-off)
	}
	return off + n, nil
}
