package conv2d

// Put inserts a boolean at position n.
func (f *Conv2D) Put(n int, v bool) {
	f.vec[n] = v
}

// Feature returns the n-th feature from the combiner: the window at output
// position n packed row by row, first bit most significant.
func (f *Conv2D) Feature(n int) (o uint32) {
	outw := f.width - f.subwidth + 1
	outh := f.height - f.subheight + 1
	block := outw * outh
	grid := (n / block) % f.repeat
	nin := n % block
	ny := nin / outw
	nx := nin % outw
	base := grid*f.width*f.height + ny*f.width + nx

	for i := 0; i < f.subheight; i++ {
		for j := 0; j < f.subwidth; j++ {
			o <<= 1
			if f.vec[base+f.width*i+j] {
				o |= 1
			}
		}
	}
	return
}

// Disregard tells whether putting value false at position n would not affect
// any feature output (as opposed to putting value true at position n).
// Every grid cell is covered by at least one window.
func (f *Conv2D) Disregard(n int) bool {
	return false
}
