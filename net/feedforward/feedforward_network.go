// Package feedforward implements a feedforward network type
package feedforward

import "github.com/objtrain/objtrain/datasets"
import "github.com/objtrain/objtrain/hash"
import "github.com/objtrain/objtrain/hashtron"
import "github.com/objtrain/objtrain/layer"

// Intermediate is an intermediate value used as both layer input and layer output in optimization
type Intermediate interface {

	// Feature extracts n-th feature from Intermediate
	Feature(n int) uint32

	// Disregard reports whether Intermediate doesn't regard n-th bit as affecting the output
	Disregard(n int) bool
}

// SingleValue is a single value returned by the final layer
type SingleValue uint32

// Feature extracts the feature from SingleValue
func (v SingleValue) Feature(n int) uint32 {
	return uint32(v)
}

// Disregard reports whether SingleValue doesn't regard n-th bit as affecting the output
func (v SingleValue) Disregard(n int) bool {
	return false
}

// FeedforwardNetworkInput is one individual input to the feedforward network
type FeedforwardNetworkInput interface {
	Feature(n int) uint32
}

// FeedforwardNetworkInOutput is one individual sample with the expected network output
type FeedforwardNetworkInOutput interface {
	Feature(n int) uint32
	Output() uint16
}

// FeedforwardNetwork is the feedforward network. Even layers hold hashtrons,
// the odd layer after each of them holds the combiner reading their bits.
type FeedforwardNetwork struct {
	layers    [][]hashtron.Hashtron
	combiners []layer.Layer
	premodulo []uint32
}

// Len returns the number of hashtrons which need to be trained inside the network.
func (f FeedforwardNetwork) Len() (o int) {
	for _, v := range f.layers {
		o += len(v)
	}
	return
}

// LenLayers returns the number of layers. Each Layer and Combiner counts as a layer here.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// GetLayer gets the layer number of hashtron based on hashtron number. Returns -1 on failure.
func (f FeedforwardNetwork) GetLayer(n int) int {
	if n < 0 {
		return -1
	}
	for i, v := range f.layers {
		if n < len(v) {
			return i
		}
		n -= len(v)
	}
	return -1
}

// GetPosition gets the position of hashtron within layer based on the overall
// hashtron number. Returns -1 on failure.
func (f FeedforwardNetwork) GetPosition(n int) int {
	if n < 0 {
		return -1
	}
	for _, v := range f.layers {
		if n < len(v) {
			return n
		}
		n -= len(v)
	}
	return -1
}

// GetHashtron gets n-th hashtron pointer in the network. You can write
// a new hashtron into the pointer.
func (f FeedforwardNetwork) GetHashtron(n int) *hashtron.Hashtron {
	if n < 0 {
		return nil
	}
	for _, v := range f.layers {
		if n < len(v) {
			return &v[n]
		}
		n -= len(v)
	}
	return nil
}

// NewLayer adds a layer of n random one bit hashtrons to the end of network.
func (f *FeedforwardNetwork) NewLayer(n int) {
	f.NewLayerP(n, 0)
}

// NewLayerP adds a hashtron layer to the end of network with n hashtrons and
// input feature pre-modulo.
func (f *FeedforwardNetwork) NewLayerP(n int, premodulo uint32) {
	var layer = make([]hashtron.Hashtron, n)
	for i := range layer {
		h, _ := hashtron.New(nil, 1)
		layer[i] = *h
	}
	f.layers = append(f.layers, layer)
	f.combiners = append(f.combiners, nil)
	f.premodulo = append(f.premodulo, premodulo)
}

// NewCombiner adds a combiner layer to the end of network
func (f *FeedforwardNetwork) NewCombiner(layer layer.Layer) {
	f.layers = append(f.layers, nil)
	f.combiners = append(f.combiners, layer)
	f.premodulo = append(f.premodulo, 0)
}

// GetBits reports the number of bits predicted by this network, one per
// hashtron of the final layer.
func (f FeedforwardNetwork) GetBits() byte {
	for i := len(f.layers) - 1; i >= 0; i-- {
		if len(f.layers[i]) > 0 {
			return byte(len(f.layers[i]))
		}
	}
	return 0
}

// GetClasses reports the number of classes predicted by this network
func (f FeedforwardNetwork) GetClasses() uint32 {
	return uint32(1) << f.GetBits()
}

// Clone copies the hashtrons. The combiners are stateless and shared.
func (f FeedforwardNetwork) Clone() (o FeedforwardNetwork) {
	o.layers = make([][]hashtron.Hashtron, len(f.layers))
	for i, v := range f.layers {
		if v != nil {
			o.layers[i] = append([]hashtron.Hashtron(nil), v...)
		}
	}
	o.combiners = append([]layer.Layer(nil), f.combiners...)
	o.premodulo = append([]uint32(nil), f.premodulo...)
	return
}

// feature reads the input of hashtron i in layer l, applying the pre-modulo
func (f FeedforwardNetwork) feature(in FeedforwardNetworkInput, l, i int) uint32 {
	var feat = in.Feature(i)
	if f.premodulo[l] != 0 {
		feat = hash.Hash(feat, uint32(i), f.premodulo[l])
	}
	return feat
}

// Forward solves the intermediate value (net output after layer l based on that layer's input in)
// and the bit returned by worst hashtron is optionally negated and returned as computed.
func (f FeedforwardNetwork) Forward(in FeedforwardNetworkInput, l, worst int, neg bool) (inter Intermediate, computed bool) {
	if len(f.combiners) > l+1 && f.combiners[l+1] != nil {
		var combiner = f.combiners[l+1].Lay()
		for i := range f.layers[l] {
			var bit = f.layers[l][i].Forward(f.feature(in, l, i), i == worst && neg)&1 != 0
			combiner.Put(i, bit)
			if i == worst {
				computed = bit
			}
		}
		return combiner, computed
	}

	// final layer, hashtron i produces output bit i
	var val uint32
	for i := range f.layers[l] {
		var bit = f.layers[l][i].Forward(f.feature(in, l, i), i == worst && neg)&1 != 0
		if bit {
			val |= 1 << uint(i)
		}
		if i == worst {
			computed = bit
		}
	}
	return SingleValue(val), computed
}

// Infer infers the network output based on input
func (f FeedforwardNetwork) Infer(in FeedforwardNetworkInput) uint32 {
	var out = in
	for l := 0; l < f.LenLayers(); l += 2 {
		out, _ = f.Forward(out, l, -1, false)
	}
	return out.Feature(0)
}

// Tally tallies the network on one sample with respect to to-be-trained worst
// hashtron. Both output bits of the worst hashtron are tried and the one with
// the lower loss is voted for. Loss is 0 when the output is correct.
func (f FeedforwardNetwork) Tally(io FeedforwardNetworkInOutput, worst int, tally *datasets.Tally,
	loss func(actual, expected uint32) uint32) {
	l := f.GetLayer(worst)
	pos := f.GetPosition(worst)
	if l < 0 {
		return
	}
	var in = FeedforwardNetworkInput(io)
	for l_prev := 0; l_prev < l; l_prev += 2 {
		in, _ = f.Forward(in, l_prev, -1, false)
	}
	ifw := f.feature(in, l, pos)
	expected := uint32(io.Output())

	var losses [2]uint32
	var computed [2]bool
	for neg := 0; neg < 2; neg++ {
		inter, bit := f.Forward(in, l, pos, neg == 1)
		computed[neg] = bit
		if neg == 0 && inter.Disregard(pos) {
			return
		}
		for l_post := l + 2; l_post < f.LenLayers(); l_post += 2 {
			inter, _ = f.Forward(inter, l_post, -1, false)
		}
		losses[neg] = loss(inter.Feature(0), expected)
	}
	if losses[0] == losses[1] {
		// the worst hashtron does not matter for this sample
		return
	}
	better := 0
	if losses[1] < losses[0] {
		better = 1
	}
	vote := int8(-1)
	if computed[better] {
		vote = 1
	}
	if losses[better] == 0 {
		tally.AddToCorrect(ifw, vote, better == 1)
	} else {
		tally.AddToImprove(ifw, vote, better == 1)
	}
}
