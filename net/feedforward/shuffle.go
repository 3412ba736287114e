package feedforward

import "math/rand"

// Sequence lists every hashtron number, layer by layer, each layer shuffled
// when shuffle is set. Reverse starts from the output layer.
func (f FeedforwardNetwork) Sequence(shuffle, reverse bool) (o []int) {
	o = make([]int, f.Len())
	for i := range o {
		o[i] = i
	}
	if shuffle {
		var base = 0
		for i := range f.layers {
			n := len(f.layers[i])
			rand.Shuffle(n, func(i, j int) { o[base+i], o[base+j] = o[base+j], o[base+i] })
			base += n
		}
	}
	if reverse {
		var out = make([]int, 0, len(o))
		var end = len(o)
		for i := len(f.layers) - 1; i >= 0; i-- {
			n := len(f.layers[i])
			out = append(out, o[end-n:end]...)
			end -= n
		}
		o = out
	}
	return o
}
