package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/draw"
	"github.com/wwsheng009/tuirun/style"
)

func TestCountOpsCountsEachKind(t *testing.T) {
	b := draw.NewBuilder()
	b.ClearTo(80, 24, style.ResolvedStyle{})
	b.FillRect(0, 0, 10, 1, style.ResolvedStyle{})
	b.DrawText(0, 0, "hello", style.ResolvedStyle{})
	b.PushClip(0, 0, 10, 10)
	require.NoError(t, b.PopClip())
	b.SetCursor(draw.Cursor{X: 1, Y: 2, Visible: true})

	data, err := b.Build()
	require.NoError(t, err)

	counts, err := countOps(data)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["clearTo"])
	assert.Equal(t, 1, counts["fillRect"])
	assert.Equal(t, 1, counts["drawText"])
	assert.Equal(t, 1, counts["pushClip"])
	assert.Equal(t, 1, counts["popClip"])
	assert.Equal(t, 1, counts["setCursor"])
}

func TestCountOpsRejectsUnknownTag(t *testing.T) {
	_, err := countOps([]byte{99, 1, 2, 3})
	assert.Error(t, err)
}

func TestCountOpsRejectsTruncatedBody(t *testing.T) {
	_, err := countOps([]byte{byte(draw.OpFillRect), 1, 2})
	assert.Error(t, err)
}
