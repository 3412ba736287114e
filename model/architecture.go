// Package model builds the image classifier network and stores it as a
// single artifact file.
package model

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/layer/conv2d"
	"github.com/objtrain/objtrain/layer/full"
	"github.com/objtrain/objtrain/layer/majpool2d"
	"github.com/objtrain/objtrain/net/feedforward"
)

// Architecture are the parameters the network is built from
type Architecture struct {
	Side      int    `json:"side"`      // input side after resizing
	Kernel    int    `json:"kernel"`    // convolution window side
	Pool      int    `json:"pool"`      // majority pool block side
	Premodulo uint32 `json:"premodulo"` // feature pre-modulo of the convolution hashtrons, 0 disables
	Classes   int    `json:"classes"`
}

// DefaultArchitecture is a 16x16 input, 3x3 convolution and 4x4 pool network,
// the output hashtrons read a 3x3 pooled map
func DefaultArchitecture(classes int) Architecture {
	return Architecture{Side: 16, Kernel: 3, Pool: 4, Classes: classes}
}

// Bits is the number of output hashtrons, enough to encode every class
func (a Architecture) Bits() int {
	if a.Classes <= 2 {
		return 1
	}
	return bits.Len(uint(a.Classes - 1))
}

// patches is the side of the first hashtron layer, one hashtron per 2x2 patch
func (a Architecture) patches() int {
	return a.Side - 1
}

// convolved is the side of the second hashtron layer
func (a Architecture) convolved() int {
	return a.patches() - a.Kernel + 1
}

// pooled reports whether a majority pool fits, otherwise the convolved map
// is read whole
func (a Architecture) pooled() bool {
	c := a.convolved()
	return c*c > 32
}

// Validate checks that every layer fits
func (a Architecture) Validate() error {
	switch {
	case a.Classes < 2 || a.Classes > 1<<16:
		return errors.Errorf("model: %d classes", a.Classes)
	case a.Side < 3:
		return errors.Errorf("model: input side %d is too small", a.Side)
	case a.Kernel < 1 || a.Kernel*a.Kernel > 32 || a.Kernel > a.patches():
		return errors.Errorf("model: kernel %d does not fit input side %d", a.Kernel, a.Side)
	}
	if a.pooled() {
		c := a.convolved()
		if a.Pool < 1 || a.Pool > c || (c/a.Pool)*(c/a.Pool) > 32 {
			return errors.Errorf("model: pool %d does not reduce a %dx%d map to 32 bits", a.Pool, c, c)
		}
	}
	return nil
}

// Build creates the untrained network
func (a Architecture) Build() (*feedforward.FeedforwardNetwork, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	p, c := a.patches(), a.convolved()
	var net feedforward.FeedforwardNetwork
	net.NewLayer(p * p)
	conv, err := conv2d.New(p, p, a.Kernel, a.Kernel, 1)
	if err != nil {
		return nil, err
	}
	net.NewCombiner(conv)
	net.NewLayerP(c*c, a.Premodulo)
	if a.pooled() {
		pool, err := majpool2d.New(c, c, a.Pool, a.Pool, 1)
		if err != nil {
			return nil, err
		}
		net.NewCombiner(pool)
	} else {
		fc, err := full.New(c*c, a.Bits())
		if err != nil {
			return nil, err
		}
		net.NewCombiner(fc)
	}
	net.NewLayer(a.Bits())
	return &net, nil
}
