package feedforward

import "math/rand"

// Branch picks one random hashtron of every hashtron layer.
func (f FeedforwardNetwork) Branch(reverse bool) (o []int) {
	o = make([]int, 0, f.LenLayers())

	base := 0
	for i := 0; i < f.LenLayers(); i++ {
		if len(f.layers[i]) == 0 {
			continue
		}
		o = append(o, base+rand.Intn(len(f.layers[i])))
		base += len(f.layers[i])
	}

	if reverse {
		for i := len(o)/2 - 1; i >= 0; i-- {
			opp := len(o) - 1 - i
			o[i], o[opp] = o[opp], o[i]
		}
	}

	return o
}
