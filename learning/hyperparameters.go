package learning

import "github.com/rs/zerolog"

// HyperParameters tune the salt search which turns a tally into a hashtron
type HyperParameters struct {
	Threads int // number of threads for learning

	Shuffle bool  // whether to shuffle the set before each learning attempt
	Seed    bool  // seed prng using true rng
	Rand    int64 // prng seed used when Seed is false

	Attempts uint32 // salts tried for one modulo before the modulo is grown
	Retries  int    // restart from scratch after this many stuck attempts
	MaxSteps int    // upper bound on the program length

	Factor uint32 // initial modulo is size*size/Factor

	// Balance pads the smaller class with random features so that unseen
	// inputs split evenly between both output bits
	Balance bool

	Logger zerolog.Logger
}

// Default returns the parameters the trainer uses when none are configured.
func Default(threads int) HyperParameters {
	return HyperParameters{
		Threads:  threads,
		Shuffle:  true,
		Attempts: 1 << 16,
		Retries:  3,
		MaxSteps: 4096,
		Factor:   1,
		Logger:   zerolog.Nop(),
	}
}

func (h *HyperParameters) normalize() {
	if h.Threads <= 0 {
		h.Threads = 1
	}
	if h.Attempts == 0 {
		h.Attempts = 1 << 16
	}
	if h.Retries <= 0 {
		h.Retries = 1
	}
	if h.MaxSteps <= 0 {
		h.MaxSteps = 4096
	}
	if h.Factor == 0 {
		h.Factor = 1
	}
}
