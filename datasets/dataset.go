// Package datasets implements the training set types handed to the hashtron solver
package datasets

import "math/rand"

// Dataset maps an input feature to the bit a hashtron should output for it
type Dataset map[uint32]bool

// Init allocates the dataset
func (d *Dataset) Init() {
	*d = make(map[uint32]bool)
}

// Split splits the dataset into a false set and a true set
func (d Dataset) Split() SplittedDataset {
	return SplitDataset(d)
}

// SplittedDataset holds the features mapping to false at index 0 and true at index 1
type SplittedDataset [2]map[uint32]struct{}

// SplitDataset splits dataset into a true set and a false set
func SplitDataset(d Dataset) (o SplittedDataset) {
	o[0] = make(map[uint32]struct{})
	o[1] = make(map[uint32]struct{})
	for k, v := range d {
		if v {
			o[1][k] = struct{}{}
		} else {
			o[0][k] = struct{}{}
		}
	}
	return
}

// BalanceDataset fills the smaller set with random numbers until it matches the bigger set
func BalanceDataset(d SplittedDataset) SplittedDataset {
	if len(d[0]) == len(d[1]) {
		return d
	}
	for len(d[0]) < len(d[1]) {
		var w = rand.Uint32()
		if _, ok := d[1][w]; !ok {
			d[0][w] = struct{}{}
		}
	}
	for len(d[1]) < len(d[0]) {
		var w = rand.Uint32()
		if _, ok := d[0][w]; !ok {
			d[1][w] = struct{}{}
		}
	}
	return d
}

// Alphabet lists the members of both sets as slices
func (d SplittedDataset) Alphabet() (o [2][]uint32) {
	for i := range d {
		o[i] = make([]uint32, 0, len(d[i]))
		for v := range d[i] {
			o[i] = append(o[i], v)
		}
	}
	return
}
