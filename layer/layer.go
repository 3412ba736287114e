package layer

// Layer is the layer which can be used for instantiating a combiner
type Layer interface {

	// Lay creates a combiner
	Lay() Combiner

	// Inputs reports how many bits the combiner accepts through Put.
	Inputs() int

	// Outputs reports how many distinct features the combiner produces.
	Outputs() int
}
