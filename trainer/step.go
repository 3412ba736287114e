package trainer

import (
	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/datasets"
	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/learning"
	"github.com/objtrain/objtrain/net/feedforward"
	"github.com/objtrain/objtrain/parallel"
)

// trainWorst retrains hashtron worst from the votes of every sample. The new
// hashtron replaces the old one only when the loss on the same samples does
// not grow.
func trainWorst(net *feedforward.FeedforwardNetwork, samples []simulated.Sample, worst int, opts *Options) (accepted bool, err error) {
	var tally datasets.Tally
	tally.Init()
	defer tally.Free()

	parallel.ForEach(len(samples), opts.Threads, func(i int) {
		net.Tally(samples[i], worst, &tally, hamming)
	})
	if !tally.GetImprovementPossible() {
		return false, nil
	}

	before := batchLoss(net, samples, opts.Threads)
	htron, err := opts.Hyper.Training(&tally)
	if errors.Is(err, learning.ErrNoImprovement) || errors.Is(err, learning.ErrNoSolution) {
		opts.Logger.Debug().Int("hashtron", worst).Err(err).Msg("hashtron kept")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ptr := net.GetHashtron(worst)
	backup := *ptr
	*ptr = *htron
	after := batchLoss(net, samples, opts.Threads)
	if after > before {
		*ptr = backup
		opts.Logger.Debug().Int("hashtron", worst).Uint64("before", before).Uint64("after", after).Msg("step undone")
		return false, nil
	}
	opts.Logger.Debug().Int("hashtron", worst).Int("votes", tally.Len()).
		Uint64("before", before).Uint64("after", after).Msg("step accepted")
	return true, nil
}
