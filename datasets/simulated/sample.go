package simulated

import (
	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/tfrecord"
)

// Sample is one image/label pair, the image already resized to Side x Side
type Sample struct {
	Pixels []byte
	Side   int
	Label  uint16
}

// Feature packs the 2x2 patch n of the image, every pixel quantized to its
// two most significant bits.
func (s Sample) Feature(n int) uint32 {
	w := s.Side - 1
	n %= w * w
	p := (n/w)*s.Side + n%w
	return uint32(s.Pixels[p]>>6)<<6 |
		uint32(s.Pixels[p+1]>>6)<<4 |
		uint32(s.Pixels[p+s.Side]>>6)<<2 |
		uint32(s.Pixels[p+s.Side+1]>>6)
}

// Output is the label
func (s Sample) Output() uint16 {
	return s.Label
}

// ParseSample decodes one serialized tf.Example into a Sample
func ParseSample(record []byte, m *Metadata, side int) (Sample, error) {
	e, err := tfrecord.ParseExample(record)
	if err != nil {
		return Sample{}, err
	}
	raw, err := e.BytesFeature(m.ImageKey)
	if err != nil {
		return Sample{}, err
	}
	label, err := e.Int64Feature(m.LabelKey)
	if err != nil {
		return Sample{}, err
	}
	if label < 0 || label >= int64(len(m.Labels)) {
		return Sample{}, errors.Wrapf(ErrInvalidMetadata, "label %d outside of %d labels", label, len(m.Labels))
	}
	pixels, err := DecodeImage(raw, m, side)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Pixels: pixels, Side: side, Label: uint16(label)}, nil
}
