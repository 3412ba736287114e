// Package tfrecord reads and writes TFRecord files: every record is a
// little endian uint64 length, the masked CRC32-C of the length, the payload
// and the masked CRC32-C of the payload.
package tfrecord

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// ErrCorrupted is returned when a record checksum does not match
var ErrCorrupted = errors.New("tfrecord: checksum mismatch")

// MaxRecordSize bounds the payload length accepted by Reader.
const MaxRecordSize = 256 << 20

const maskDelta = 0xa282ead8

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, castagnoli)
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Reader reads records one at a time
type Reader struct {
	r      *bufio.Reader
	header [12]byte
	footer [4]byte
}

// NewReader wraps r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64<<10)}
}

// Next returns the next record payload. It returns io.EOF at a clean end of
// input and io.ErrUnexpectedEOF when the input stops inside a record. Other
// errors of the underlying reader are returned wrapped.
func (r *Reader) Next() ([]byte, error) {
	n, err := io.ReadFull(r.r, r.header[:])
	if err == io.EOF && n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, inside(err, "header")
	}
	length := binary.LittleEndian.Uint64(r.header[:8])
	if maskedCRC(r.header[:8]) != binary.LittleEndian.Uint32(r.header[8:]) {
		return nil, errors.Wrap(ErrCorrupted, "length")
	}
	if length > MaxRecordSize {
		return nil, errors.Errorf("tfrecord: record of %d bytes exceeds limit", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, inside(err, "payload")
	}
	if _, err := io.ReadFull(r.r, r.footer[:]); err != nil {
		return nil, inside(err, "footer")
	}
	if maskedCRC(data) != binary.LittleEndian.Uint32(r.footer[:]) {
		return nil, errors.Wrap(ErrCorrupted, "payload")
	}
	return data, nil
}

// inside maps a read error met inside a record, the end of input being a
// truncated record
func inside(err error, part string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.ErrUnexpectedEOF
	}
	return errors.Wrapf(err, "tfrecord: read %s", part)
}

// Writer writes records
type Writer struct {
	w io.Writer
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write frames and writes one record
func (w *Writer) Write(data []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(data))
	for _, b := range [][]byte{header[:], data, footer[:]} {
		if _, err := w.w.Write(b); err != nil {
			return errors.Wrap(err, "tfrecord write")
		}
	}
	return nil
}
