package engine

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeKeyEvent(timeMs int64, key uint16, mods uint8, action byte) []byte {
	buf := make([]byte, 9+4)
	buf[0] = kindKey
	binary.LittleEndian.PutUint64(buf[1:9], uint64(timeMs))
	binary.LittleEndian.PutUint16(buf[9:], key)
	buf[11] = mods
	buf[12] = action
	return buf
}

func encodeTickEvent(timeMs int64, dtMs uint32) []byte {
	buf := make([]byte, 9+4)
	buf[0] = kindTick
	binary.LittleEndian.PutUint64(buf[1:9], uint64(timeMs))
	binary.LittleEndian.PutUint32(buf[9:], dtMs)
	return buf
}

func TestDecodeBatchDecodesKeyEvent(t *testing.T) {
	d := NewDecoder()
	raw := encodeKeyEvent(100, 65, 1, 0)
	batch, err := d.DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, batch.Events, 1)
	ev := batch.Events[0]
	assert.Equal(t, "key", ev.Kind)
	assert.Equal(t, int64(100), ev.TimeMs)
	assert.Equal(t, uint16(65), ev.Key)
	assert.Equal(t, "down", ev.Action)
}

func TestDecodeBatchDecodesMultipleEventsInWireOrder(t *testing.T) {
	d := NewDecoder()
	raw := append(encodeKeyEvent(10, 1, 0, 0), encodeTickEvent(20, 16)...)
	batch, err := d.DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, "key", batch.Events[0].Kind)
	assert.Equal(t, "tick", batch.Events[1].Kind)
}

func TestDecodeBatchClampsRegressingTimeMsWithinBatch(t *testing.T) {
	d := NewDecoder()
	raw := append(encodeKeyEvent(100, 1, 0, 0), encodeKeyEvent(50, 2, 0, 0)...)
	batch, err := d.DecodeBatch(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(100), batch.Events[0].TimeMs)
	assert.Equal(t, int64(100), batch.Events[1].TimeMs, "regressing timeMs must clamp forward to stay non-decreasing")
}

func TestDecodeBatchClampsAcrossBatches(t *testing.T) {
	d := NewDecoder()
	_, err := d.DecodeBatch(encodeKeyEvent(500, 1, 0, 0))
	require.NoError(t, err)

	batch, err := d.DecodeBatch(encodeKeyEvent(10, 2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(500), batch.Events[0].TimeMs, "a new batch's leading event must clamp to the prior batch's last timeMs")
}

func TestDecodeBatchRejectsShortBuffer(t *testing.T) {
	d := NewDecoder()
	_, err := d.DecodeBatch([]byte{kindKey, 1, 2})
	assert.Error(t, err)
}

func TestDecodeBatchRejectsUnknownKind(t *testing.T) {
	d := NewDecoder()
	buf := make([]byte, 9)
	buf[0] = 99
	_, err := d.DecodeBatch(buf)
	assert.Error(t, err)
}
