package hashtron

import "github.com/objtrain/objtrain/hash"

// Forward runs the program on command. Output bit j is computed on the command
// tagged with j in its upper half, negate flips every output bit.
func (h Hashtron) Forward(command uint32, negate bool) (out uint16) {
	if h.Len() == 0 {
		if negate {
			return uint16(1<<h.Bits()) - 1
		}
		return
	}
	for j := byte(0); j < h.Bits(); j++ {
		var input = command
		if j > 0 {
			input ^= uint32(j) << 16
		}
		for i := 0; i < h.Len(); i++ {
			var s, max = h.Get(i)
			input = hash.Hash(input, s, max)
		}
		input &= 1
		if negate {
			input ^= 1
		}
		if input != 0 {
			out |= 1 << j
		}
	}
	return
}
