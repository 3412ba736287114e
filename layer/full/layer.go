// Package full implements a fully connected layer and combiner
package full

import "fmt"
import "github.com/objtrain/objtrain/layer"

// FullLayer connects every input bit to every output feature
type FullLayer struct {
	size    int
	outputs int
}

// Full is the combiner instance of FullLayer
type Full struct {
	vec []bool
}

// MustNew creates a new full layer with size input bits and outputs features
func MustNew(size, outputs int) *FullLayer {
	o, err := New(size, outputs)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new full layer with size input bits and outputs features
func New(size, outputs int) (o *FullLayer, err error) {
	if size <= 0 || size > 32 {
		return nil, fmt.Errorf("New Full: Size %d does not fit a 32 bit feature", size)
	}
	if outputs <= 0 {
		outputs = 1
	}
	return &FullLayer{size: size, outputs: outputs}, nil
}

// Inputs reports the number of bits the combiner accepts
func (i *FullLayer) Inputs() int {
	return i.size
}

// Outputs reports the number of features
func (i *FullLayer) Outputs() int {
	return i.outputs
}

// Lay turns full layer into a combiner
func (i *FullLayer) Lay() layer.Combiner {
	o := new(Full)
	o.vec = make([]bool, i.size)
	return o
}
