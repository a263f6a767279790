package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	vec := []float32{1.5, -2.25, 0, 3.125}
	buf := make([]byte, recordSize(len(vec)))
	encodeRecord(buf, 42, flagDeleted, vec)

	id, flags := decodeRecordHeader(buf)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, flagDeleted, flags)
	assert.Equal(t, vec, decodeRecordVector(buf, len(vec)))
}

func TestRecordVectorViewAliasesBuffer(t *testing.T) {
	vec := []float32{1, 2, 3}
	buf := make([]byte, recordSize(len(vec)))
	encodeRecord(buf, 1, 0, vec)

	view := recordVectorView(buf, len(vec))
	assert.Equal(t, vec, view)

	view[0] = 99
	id, _ := decodeRecordHeader(buf)
	assert.EqualValues(t, 1, id)
	assert.Equal(t, float32(99), decodeRecordVector(buf, len(vec))[0])
}

func TestRecordSizeAccountsForHeaderAndDimension(t *testing.T) {
	assert.Equal(t, recordHeaderSize, recordSize(0))
	assert.Equal(t, recordHeaderSize+128*4, recordSize(128))
}
