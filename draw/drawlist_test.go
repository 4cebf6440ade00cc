package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwsheng009/tuirun/style"
)

func TestBuildProducesBytesAndMarksSingleUse(t *testing.T) {
	b := NewBuilder()
	b.ClearTo(80, 24, style.ResolvedStyle{})
	b.DrawText(0, 0, "hi", style.ResolvedStyle{})

	out, err := b.Build()
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = b.Build()
	require.Error(t, err)
	assert.Equal(t, FailureInternal, err.(*Failure).Code)
}

func TestPopClipBeneathDepthZeroRefused(t *testing.T) {
	b := NewBuilder()
	err := b.PopClip()
	require.Error(t, err)
	assert.Equal(t, FailureInternal, err.(*Failure).Code)
}

func TestUnbalancedClipFailsBuild(t *testing.T) {
	b := NewBuilder()
	b.PushClip(0, 0, 10, 10)
	_, err := b.Build()
	require.Error(t, err)
}

func TestResetClearsOpsAndDedupTable(t *testing.T) {
	b := NewBuilder()
	idx := b.AddTextRunBlob([]Segment{{Text: "x"}})
	assert.Equal(t, 0, idx)
	b.DrawText(0, 0, "hi", style.ResolvedStyle{})
	b.Reset()
	assert.Equal(t, 0, b.OpCount())

	idx2 := b.AddTextRunBlob([]Segment{{Text: "x"}})
	assert.Equal(t, 0, idx2, "dedup table starts fresh after reset")
}

func TestAddTextRunBlobDedups(t *testing.T) {
	b := NewBuilder()
	segs := []Segment{{Text: "hello"}}
	idx1 := b.AddTextRunBlob(segs)
	idx2 := b.AddTextRunBlob(segs)
	assert.Equal(t, idx1, idx2)
}

func TestDrawTextRunRejectsUnknownIndex(t *testing.T) {
	b := NewBuilder()
	err := b.DrawTextRun(0, 0, 5)
	require.Error(t, err)
}

func TestOversizedDrawlistFailsTooLarge(t *testing.T) {
	b := NewBuilder()
	big := make([]byte, MaxBytes+1)
	b.buf = big
	_, err := b.Build()
	require.Error(t, err)
	assert.Equal(t, FailureTooLarge, err.(*Failure).Code)
}
