// Package layer defines how the bits of one hashtron layer are turned into
// the features read by the next one
package layer

// Combiner collects the output bits of a hashtron layer for one sample
type Combiner interface {
	// Put stores the bit of hashtron n
	Put(n int, v bool)

	// Feature is the input of hashtron n of the next layer
	Feature(n int) (o uint32)

	// Disregard reports that bit n cannot change any feature whatever its
	// value, given the other bits already put. Training skips such samples.
	Disregard(n int) bool
}
