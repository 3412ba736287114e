// Package learning implements the learning stage of the hashtron classifier
package learning

import crypto_rand "crypto/rand"
import "encoding/binary"
import "math/rand"
import "sync"

import "github.com/pkg/errors"

import "github.com/objtrain/objtrain/datasets"
import "github.com/objtrain/objtrain/hash"
import "github.com/objtrain/objtrain/hashtron"
import "github.com/objtrain/objtrain/parallel"

// ErrNoImprovement is returned for a tally without any resolved vote
var ErrNoImprovement = errors.New("learning: tally holds no votes")

// ErrNoSolution is returned when every retry of the salt search got stuck
var ErrNoSolution = errors.New("learning: no separating program found")

// Training turns the votes of tally into a one bit hashtron answering every
// resolved feature the way the votes decided.
func (h *HyperParameters) Training(t *datasets.Tally) (*hashtron.Hashtron, error) {
	d := t.Dataset()
	if len(d) == 0 {
		return nil, ErrNoImprovement
	}
	split := d.Split()
	if h.Balance {
		split = datasets.BalanceDataset(split)
	}
	program, err := h.Reducing(split.Alphabet())
	if err != nil {
		return nil, err
	}
	return hashtron.New(program, 1)
}

// scratch is the per goroutine state of one salt check
type scratch struct {
	slots []byte
	out   []uint32
}

// Reducing searches a program of (salt, modulo) commands. Applying the program
// to a member of alphabet[0] yields an even number, to alphabet[1] an odd one.
func (h *HyperParameters) Reducing(alphabet [2][]uint32) ([][2]uint32, error) {
	h.normalize()
	if len(alphabet[0])+len(alphabet[1]) == 0 {
		// garbage in, garbage out
		return nil, ErrNoImprovement
	}
	var rng *rand.Rand
	if h.Seed {
		var b [8]byte
		if _, err := crypto_rand.Read(b[:]); err == nil {
			rng = rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(h.Rand))
	}
	alphabet = fillEmpty(alphabet, rng)
	if h.Shuffle {
		rng.Shuffle(len(alphabet[0]), func(i, j int) { alphabet[0][i], alphabet[0][j] = alphabet[0][j], alphabet[0][i] })
		rng.Shuffle(len(alphabet[1]), func(i, j int) { alphabet[1][i], alphabet[1][j] = alphabet[1][j], alphabet[1][i] })
	}

	for retry := 0; retry < h.Retries; retry++ {
		program := h.reduce(alphabet, rng.Uint32())
		if program != nil {
			h.Logger.Debug().Int("size", len(program)).Int("retry", retry).
				Int("alphabet", len(alphabet[0])+len(alphabet[1])).Msg("hashtron solved")
			return program, nil
		}
		h.Logger.Debug().Int("retry", retry).Msg("salt search stuck, restarting")
	}
	return nil, ErrNoSolution
}

func (h *HyperParameters) reduce(orig [2][]uint32, center uint32) (program [][2]uint32) {
	var alphabet = [2][]uint32{append([]uint32(nil), orig[0]...), append([]uint32(nil), orig[1]...)}
	var size = uint64(len(alphabet[0]) + len(alphabet[1]))
	var maxx = size * size / uint64(h.Factor)
	if maxx < 2 {
		maxx = 2
	}
	var stuck int
	for step := 0; step < h.MaxSteps; step++ {
		if maxx > 1<<24 {
			maxx = 1 << 24
		}
		salt, tried, ok := h.search(alphabet, uint32(maxx), center)
		if !ok {
			stuck++
			if stuck > 16 {
				return nil
			}
			maxx += maxx/8 + 1
			continue
		}
		stuck = 0
		program = append(program, [2]uint32{salt, uint32(maxx)})
		center = salt
		for j := 0; j < 2; j++ {
			var set = make(map[uint32]struct{}, len(alphabet[j]))
			for _, v := range alphabet[j] {
				set[hash.Hash(v, salt, uint32(maxx))] = struct{}{}
			}
			alphabet[j] = alphabet[j][:0]
			for v := range set {
				alphabet[j] = append(alphabet[j], v)
			}
		}
		if separated(alphabet) {
			return program
		}
		// shrink fast while salts are easy to find
		if tried < h.Attempts/64 {
			maxx = maxx * 3 / 4
		} else {
			maxx = maxx * 15 / 16
		}
		if maxx < 2 {
			maxx = 2
		}
	}
	return nil
}

// search finds a salt mapping the two sets into [0, maxx) without a value
// shared by both sets. At modulo 2 the sets must land on their parity.
func (h *HyperParameters) search(alphabet [2][]uint32, maxx uint32, center uint32) (salt, tried uint32, ok bool) {
	var longest = len(alphabet[0])
	if len(alphabet[1]) > longest {
		longest = len(alphabet[1])
	}
	var pool = sync.Pool{New: func() interface{} {
		return &scratch{slots: make([]byte, maxx), out: make([]uint32, longest)}
	}}
	var mut sync.Mutex
	var best = ^uint32(0)

	found := parallel.Loop(h.Threads).LoopUntil(h.Attempts, func(nonce uint32, ender parallel.LoopStopper) bool {
		var s = center ^ (nonce * 2654435761)
		sc := pool.Get().(*scratch)
		defer pool.Put(sc)
		if !check(alphabet, s, maxx, sc, ender) {
			return false
		}
		mut.Lock()
		if nonce < best {
			best = nonce
			salt = s
		}
		mut.Unlock()
		return true
	})
	if !found {
		return 0, h.Attempts, false
	}
	return salt, best, true
}

func check(alphabet [2][]uint32, salt, maxx uint32, sc *scratch, ender parallel.LoopStopper) (ok bool) {
	ok = true
	var touched [2]int
outer:
	for j := 0; j < 2; j++ {
		out := sc.out[:len(alphabet[j])]
		hash.HashMany(out, alphabet[j], salt, maxx)
		for i, v := range out {
			if maxx == 2 && int(v&1) != j {
				ok = false
				touched[j] = i
				break outer
			}
			if sc.slots[v] != 0 && sc.slots[v] != byte(j+1) {
				ok = false
				touched[j] = i
				break outer
			}
			sc.slots[v] = byte(j + 1)
		}
		touched[j] = len(out)
		if ender.Load() {
			ok = false
			break
		}
	}
	// reset the slots this check wrote
	for j := 0; j < 2; j++ {
		for i := 0; i < touched[j]; i++ {
			sc.slots[hash.Hash(alphabet[j][i], salt, maxx)] = 0
		}
	}
	return ok
}

// separated reports whether every member of set 0 is even and every member of set 1 is odd
func separated(alphabet [2][]uint32) bool {
	for j := 0; j < 2; j++ {
		for _, v := range alphabet[j] {
			if int(v&1) != j {
				return false
			}
		}
	}
	return true
}

// fillEmpty adds a random value to an empty set which is not present in the other set
func fillEmpty(alphabet [2][]uint32, rng *rand.Rand) [2][]uint32 {
	for i := 0; i < 2; i++ {
		if len(alphabet[i]) != 0 {
			continue
		}
		var other = make(map[uint32]struct{}, len(alphabet[1-i]))
		for _, v := range alphabet[1-i] {
			other[v] = struct{}{}
		}
		for {
			var v = rng.Uint32()
			if _, exists := other[v]; !exists {
				alphabet[i] = append(alphabet[i], v)
				break
			}
		}
	}
	return alphabet
}
