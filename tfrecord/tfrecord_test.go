package tfrecord

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func writeRecords(t *testing.T, records ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	return buf.Bytes()
}

func TestReaderReadsWhatWriterWrote(t *testing.T) {
	records := [][]byte{[]byte("hello"), {}, bytes.Repeat([]byte{7}, 100000)}
	r := NewReader(bytes.NewReader(writeRecords(t, records...)))
	for _, want := range records {
		got, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

// the record of b"foo" as written by the reference implementation
func TestKnownFraming(t *testing.T) {
	data := writeRecords(t, []byte("foo"))
	require.Len(t, data, 8+4+3+4)
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0}, data[:8])
	assert.Equal(t, maskedCRC([]byte("foo")), uint32(data[15])|uint32(data[16])<<8|uint32(data[17])<<16|uint32(data[18])<<24)
}

func TestCorruptedPayload(t *testing.T) {
	data := writeRecords(t, []byte("payload"))
	data[13] ^= 0xff
	_, err := NewReader(bytes.NewReader(data)).Next()
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestCorruptedLength(t *testing.T) {
	data := writeRecords(t, []byte("payload"))
	data[0] ^= 0x01
	_, err := NewReader(bytes.NewReader(data)).Next()
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestTruncated(t *testing.T) {
	data := writeRecords(t, []byte("payload"))
	for _, cut := range []int{1, 11, 12, 15, len(data) - 1} {
		_, err := NewReader(bytes.NewReader(data[:cut])).Next()
		assert.Equal(t, io.ErrUnexpectedEOF, err, "cut at %d", cut)
	}
}

func TestReadErrorPropagates(t *testing.T) {
	reset := errors.New("connection reset by peer")
	data := writeRecords(t, []byte("payload"))
	for _, cut := range []int{5, 14} {
		r := NewReader(io.MultiReader(bytes.NewReader(data[:cut]), iotest.ErrReader(reset)))
		_, err := r.Next()
		assert.True(t, errors.Is(err, reset), "cut at %d: %v", cut, err)
		assert.False(t, errors.Is(err, io.ErrUnexpectedEOF), "cut at %d", cut)
	}
}

func TestExampleRoundTrip(t *testing.T) {
	e := Example{
		"image": {Bytes: [][]byte{{1, 2, 3}}},
		"label": {Int64s: []int64{7, -1}},
		"score": {Floats: []float32{0.5, 2}},
	}
	back, err := ParseExample(MarshalExample(e))
	require.NoError(t, err)
	assert.Equal(t, e, back)

	img, err := back.BytesFeature("image")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, img)
	label, err := back.Int64Feature("label")
	require.NoError(t, err)
	assert.Equal(t, int64(7), label)

	_, err = back.Int64Feature("missing")
	assert.ErrorIs(t, err, ErrMissingFeature)
	_, err = back.BytesFeature("label")
	assert.ErrorIs(t, err, ErrMissingFeature)
}

func TestParseUnpackedInt64(t *testing.T) {
	var list []byte
	list = protowire.AppendTag(list, 1, protowire.VarintType)
	list = protowire.AppendVarint(list, 4)
	var feature []byte
	feature = protowire.AppendTag(feature, 3, protowire.BytesType)
	feature = protowire.AppendBytes(feature, list)
	var entry []byte
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "label")
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, feature)
	var features []byte
	features = protowire.AppendTag(features, 1, protowire.BytesType)
	features = protowire.AppendBytes(features, entry)
	var example []byte
	example = protowire.AppendTag(example, 1, protowire.BytesType)
	example = protowire.AppendBytes(example, features)

	e, err := ParseExample(example)
	require.NoError(t, err)
	label, err := e.Int64Feature("label")
	require.NoError(t, err)
	assert.Equal(t, int64(4), label)
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseExample([]byte{0x0a, 0x05, 0x01})
	assert.Error(t, err)
}
