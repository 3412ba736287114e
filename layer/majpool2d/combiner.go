package majpool2d

// Put sets the n-th bool directly.
func (s *MajPool2D) Put(n int, v bool) {
	s.vec[n] = v
}

// block returns the grid and the top left cell of the pooling block holding
// position n, ok is false when n lies in the unpooled remainder.
func (s *MajPool2D) block(n int) (base int, ok bool) {
	matrix := s.width * s.height
	grid := n / matrix
	n %= matrix
	y := n / s.width
	x := n % s.width
	pw := s.width / s.subwidth
	ph := s.height / s.subheight
	if x >= pw*s.subwidth || y >= ph*s.subheight {
		return 0, false
	}
	y -= y % s.subheight
	x -= x % s.subwidth
	return grid*matrix + y*s.width + x, true
}

// count counts true cells of the block at base, skipping position skip.
func (s *MajPool2D) count(base, skip int) (w int) {
	for i := 0; i < s.subheight; i++ {
		for j := 0; j < s.subwidth; j++ {
			p := base + i*s.width + j
			if p != skip && s.vec[p] {
				w++
			}
		}
	}
	return
}

// Disregard tells whether putting value false at position n would not affect
// any feature output (as opposed to putting value true at position n).
func (s *MajPool2D) Disregard(n int) bool {
	base, ok := s.block(n)
	if !ok {
		return true
	}
	size := s.subwidth * s.subheight
	w := s.count(base, n)
	return (2*w > size) == (2*(w+1) > size)
}

// Feature returns the pooled map of grid m, row by row, first bit most
// significant. A block is true on a strict majority of true cells.
func (s *MajPool2D) Feature(m int) (o uint32) {
	matrix := s.width * s.height
	grid := m % s.repeat
	size := s.subwidth * s.subheight
	pw := s.width / s.subwidth
	ph := s.height / s.subheight
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			base := grid*matrix + y*s.subheight*s.width + x*s.subwidth
			o <<= 1
			if 2*s.count(base, -1) > size {
				o |= 1
			}
		}
	}
	return
}
