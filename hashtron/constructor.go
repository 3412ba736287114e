package hashtron

import "errors"
import "math/rand"

// New creates a hashtron running program. A nil program creates a random
// hashtron which maps every input to a pseudo random bit.
func New(program [][2]uint32, bits byte) (h *Hashtron, err error) {
	if bits > 16 {
		return nil, errors.New("hashtron: at most 16 output bits supported")
	}
	h = new(Hashtron)
	if bits == 0 {
		bits = 1
	}
	if program == nil {
		h.program = [][2]uint32{{rand.Uint32() >> 1, 2}}
	} else {
		for _, cmd := range program {
			if cmd[1] == 0 {
				return nil, errors.New("hashtron: zero modulo in program")
			}
		}
		h.program = make([][2]uint32, len(program))
		copy(h.program, program)
	}
	h.bits = bits
	return
}
