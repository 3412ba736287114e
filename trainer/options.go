package trainer

import (
	"github.com/rs/zerolog"

	"github.com/objtrain/objtrain/learning"
)

// Observer is told about the training progress
type Observer interface {
	Step(accepted bool)
	Epoch(epoch int, train, validation float64)
}

type nopObserver struct{}

func (nopObserver) Step(bool)                    {}
func (nopObserver) Epoch(int, float64, float64) {}

// Options tune Fit
type Options struct {
	Epochs int // passes over the train split
	Steps  int // steps per epoch, 0 retrains every hashtron once

	// Window is the number of batches a step tallies its votes over and
	// measures the loss on. 0 holds the whole pass in memory and runs every
	// step of the epoch on it, otherwise every step reads the next window.
	Window int

	Patience int // epochs without validation improvement before stopping, 0 never stops early

	// Threshold is the validation accuracy in percent from which every
	// hashtron is visited, below it a random path through the layers is
	// retrained first.
	Threshold float64

	// Significance (0-100) samples the validation set, 0 uses all of it
	Significance byte

	// Checkpoint is a local file receiving the starting weights and then the
	// best weights after every improving epoch
	Checkpoint string

	Threads  int
	Hyper    learning.HyperParameters
	Observer Observer
	Logger   zerolog.Logger
}

// Debug shrinks opts to a quick run: one epoch of a few steps on a sampled
// validation set
func (o Options) Debug() Options {
	o.Epochs = 1
	o.Steps = 10
	if o.Significance == 0 {
		o.Significance = 90
	}
	return o
}

func (o *Options) normalize() {
	if o.Epochs <= 0 {
		o.Epochs = 1
	}
	if o.Threads <= 0 {
		o.Threads = 1
	}
	if o.Hyper.Threads <= 0 {
		o.Hyper.Threads = o.Threads
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
}
