package hash

import (
	"testing"
)

// performance benchmark
func BenchmarkHash(b *testing.B) {
	n := uint32(0)
	s := uint32(0)
	for i := 0; i < b.N; i++ {
		n = Hash(n, s, 1<<20)
		s++
	}
}

// loop length test
func TestHashCycles(t *testing.T) {
	const bound1 = 16
	const bound2 = 10000
	var count uint64
	for max := uint32(2); max <= 1<<bound1; max <<= 1 {
		var visited = make([]bool, max)
		var current uint32
		for s := uint32(0); s < bound2; s++ {
			current = Hash(current, s, max)
			if current == 0 || visited[current] {
				visited = make([]bool, max)
				continue
			}
			visited[current] = true
			count++
		}
	}
	if count == 0 {
		t.Errorf("hash never produced a fresh value")
	}
}

func TestHashRange(t *testing.T) {
	for _, max := range []uint32{0, 1, 2, 3, 255, 1 << 16, 1<<32 - 1} {
		for n := uint32(0); n < 1000; n++ {
			out := Hash(n*2654435761, n, max)
			if max == 0 && out != 0 {
				t.Fatalf("Hash(%d, %d, 0) = %d, want 0", n, n, out)
			}
			if max > 0 && out >= max {
				t.Fatalf("Hash(%d, %d, %d) = %d, out of range", n, n, max, out)
			}
		}
	}
}

func TestHashManyMatchesHash(t *testing.T) {
	for _, size := range []int{1, 8, 17, 64} {
		n := make([]uint32, size)
		out := make([]uint32, size)
		for i := range n {
			n[i] = uint32(i*i + 7)
		}
		HashMany(out, n, 12345, 1000)
		for i := range n {
			if want := Hash(n[i], 12345, 1000); out[i] != want {
				t.Fatalf("size %d: HashMany[%d] = %d, want %d", size, i, out[i], want)
			}
		}
	}
}

// sanity check fuzz
func FuzzHash(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s, max uint32) {
		out := Hash(n, s, max)
		if max == 0 && out != 0 {
			t.Errorf("Hash(%d, %d, 0) == %d (max=0 should be 0)", n, s, out)
		}
		if max > 1 && out >= max {
			t.Errorf("Hash(%d, %d, %d) == %d (output bigger or equal than max)", n, s, max, out)
		}
	})
}
