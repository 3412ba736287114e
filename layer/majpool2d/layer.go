// Package majpool2d implements a 2D majority pooling layer and combiner
package majpool2d

import "fmt"
import "github.com/objtrain/objtrain/layer"

// MajPool2DLayer pools subwidth x subheight blocks of repeat stacked
// width x height bit grids by majority vote.
type MajPool2DLayer struct {
	width, height, subwidth, subheight, repeat int
}

// MajPool2D is the combiner instance of MajPool2DLayer
type MajPool2D struct {
	vec                                        []bool
	width, height, subwidth, subheight, repeat int
}

// New creates a new MajPool2D layer with size, subsize and repeat
func New(width, height, subwidth, subheight, repeat int) (o *MajPool2DLayer, err error) {
	if subwidth <= 0 || subheight <= 0 {
		return nil, fmt.Errorf("New MajPool2D: Subsize %dx%d must be positive", subwidth, subheight)
	}
	if width < subwidth || height < subheight {
		return nil, fmt.Errorf("New MajPool2D: Size %dx%d is lower than Subsize %dx%d", width, height, subwidth, subheight)
	}
	if (width/subwidth)*(height/subheight) > 32 {
		return nil, fmt.Errorf("New MajPool2D: Pooled map %dx%d does not fit a 32 bit feature",
			width/subwidth, height/subheight)
	}
	if repeat <= 0 {
		repeat = 1
	}
	return &MajPool2DLayer{width, height, subwidth, subheight, repeat}, nil
}

// MustNew creates a new MajPool2D layer with size, subsize and repeat
func MustNew(width, height, subwidth, subheight, repeat int) (o *MajPool2DLayer) {
	o, err := New(width, height, subwidth, subheight, repeat)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// Inputs reports the number of bits the combiner accepts
func (i *MajPool2DLayer) Inputs() int {
	return i.width * i.height * i.repeat
}

// Outputs reports one pooled map per grid
func (i *MajPool2DLayer) Outputs() int {
	return i.repeat
}

// Lay turns MajPool2D layer into a combiner
func (i *MajPool2DLayer) Lay() layer.Combiner {
	var o MajPool2D
	o.vec = make([]bool, i.Inputs())
	o.width = i.width
	o.height = i.height
	o.subwidth = i.subwidth
	o.subheight = i.subheight
	o.repeat = i.repeat
	return &o
}
