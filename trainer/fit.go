package trainer

import (
	"context"
	"io"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/net/feedforward"
)

// History is the outcome of Fit
type History struct {
	Baseline   float64   // validation accuracy of the starting weights
	Epochs     int       // epochs run
	Best       int       // epoch whose weights were restored, 1 based, 0 keeps the starting weights
	Train      []float64 // train accuracy per epoch
	Validation []float64 // validation accuracy per epoch
	Accepted   int
	Undone     int
	Repeated   int  // epochs answering the validation set like an earlier one
	Stopped    bool // stopped early for lack of improvement
}

// BestValidation is the validation accuracy of the restored weights
func (h History) BestValidation() float64 {
	if h.Best == 0 {
		return h.Baseline
	}
	return h.Validation[h.Best-1]
}

// plateau counts the epochs since the validation accuracy last improved.
// An epoch repeating the predictions of an earlier one counts twice.
type plateau struct {
	patience int
	best     float64
	stale    int
	repeated int
	seen     map[uint64]struct{}
}

func newPlateau(patience int, baseline Report) *plateau {
	return &plateau{
		patience: patience,
		best:     baseline.Accuracy,
		seen:     map[uint64]struct{}{baseline.Fingerprint: {}},
	}
}

// observe records the validation report of an epoch and reports whether it
// beat every earlier one
func (p *plateau) observe(r Report) bool {
	_, repeated := p.seen[r.Fingerprint]
	p.seen[r.Fingerprint] = struct{}{}
	if r.Accuracy > p.best {
		p.best = r.Accuracy
		p.stale = 0
		return true
	}
	p.stale++
	if repeated {
		p.repeated++
		p.stale++
	}
	return false
}

func (p *plateau) exhausted() bool {
	return p.patience > 0 && p.stale >= p.patience
}

// order lists the hashtrons retrained during one epoch
func order(net *feedforward.FeedforwardNetwork, accuracy, threshold float64) []int {
	if accuracy >= threshold {
		return net.Sequence(true, true)
	}
	var o []int
	for len(o) < net.Len() {
		branch := net.Branch(true)
		if len(branch) == 0 {
			break
		}
		o = append(o, branch...)
	}
	return o
}

// Fit trains net on src and keeps the weights that scored best on the
// validation samples, the starting weights included.
func Fit(ctx context.Context, net *feedforward.FeedforwardNetwork, src Source, validation []simulated.Sample,
	classes int, opts Options) (History, error) {
	opts.normalize()
	var h History
	if net.Len() == 0 {
		return h, errors.New("trainer: the network has no hashtrons")
	}
	if sampled := sampleSize(len(validation), opts.Significance); sampled < len(validation) {
		validation = append([]simulated.Sample(nil), validation...)
		rand.Shuffle(len(validation), func(i, j int) { validation[i], validation[j] = validation[j], validation[i] })
		validation = validation[:sampled]
	}

	start := EvaluateSamples(net, validation, classes, opts.Threads)
	h.Baseline = start.Accuracy
	best := net.Clone()
	if err := checkpoint(net, &opts); err != nil {
		return h, err
	}
	opts.Logger.Info().Float64("validation", start.Accuracy).Float64("hamming", start.HammingLoss).
		Msg("starting weights evaluated")

	stop := newPlateau(opts.Patience, start)
	accuracy := start.Accuracy
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		log := opts.Logger.With().Int("epoch", epoch).Logger()
		seq := order(net, accuracy, opts.Threshold)

		train, err := fitEpoch(ctx, net, src, seq, &h, &opts)
		if err != nil {
			return h, err
		}

		report := EvaluateSamples(net, validation, classes, opts.Threads)
		accuracy = report.Accuracy
		h.Epochs = epoch
		h.Train = append(h.Train, train)
		h.Validation = append(h.Validation, report.Accuracy)
		opts.Observer.Epoch(epoch, train, report.Accuracy)
		log.Info().Float64("train", train).Float64("validation", report.Accuracy).
			Float64("hamming", report.HammingLoss).Int("accepted", h.Accepted).Int("undone", h.Undone).
			Msg("epoch done")

		if stop.observe(report) {
			h.Best = epoch
			best = net.Clone()
			if err := checkpoint(net, &opts); err != nil {
				return h, err
			}
		}
		h.Repeated = stop.repeated
		if stop.exhausted() {
			h.Stopped = true
			log.Info().Int("patience", opts.Patience).Int("repeated", h.Repeated).
				Msg("no improvement, stopping early")
			break
		}
	}
	if h.Best != h.Epochs {
		if err := net.SetWeights(best.Weights()); err != nil {
			return h, err
		}
		opts.Logger.Info().Int("epoch", h.Best).Float64("validation", h.BestValidation()).Msg("best weights restored")
	}
	return h, nil
}

func checkpoint(net *feedforward.FeedforwardNetwork, opts *Options) error {
	if opts.Checkpoint == "" {
		return nil
	}
	if err := net.WriteCompressedWeightsToFile(opts.Checkpoint); err != nil {
		return errors.Wrap(err, "checkpoint")
	}
	opts.Logger.Debug().Str("file", opts.Checkpoint).Msg("checkpoint written")
	return nil
}

// window reads up to n batches of b, every remaining batch when n is 0.
// io.EOF is returned only when nothing was left.
func window(b *simulated.Batches, n int) ([]simulated.Sample, error) {
	var out []simulated.Sample
	for i := 0; n == 0 || i < n; i++ {
		batch, err := b.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// fitEpoch runs the steps of one pass of src and returns the accuracy on
// the examples it trained on, measured before the first step on them
func fitEpoch(ctx context.Context, net *feedforward.FeedforwardNetwork, src Source, seq []int,
	h *History, opts *Options) (float64, error) {
	if len(seq) == 0 {
		return 0, errors.New("trainer: nothing to retrain")
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = len(seq)
	}
	b := src.Epoch(ctx)
	defer b.Close()

	var samples []simulated.Sample
	var seen, correct int
	for step := 0; step < steps; step++ {
		if samples == nil || opts.Window > 0 {
			var err error
			samples, err = window(b, opts.Window)
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, err
			}
			for i, p := range infer(net, samples, opts.Threads) {
				if p == uint32(samples[i].Label) {
					correct++
				}
			}
			seen += len(samples)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		worst := seq[step%len(seq)]
		accepted, err := trainWorst(net, samples, worst, opts)
		if err != nil {
			return 0, errors.Wrapf(err, "step %d", step)
		}
		if accepted {
			h.Accepted++
		} else {
			h.Undone++
		}
		opts.Observer.Step(accepted)
	}
	if seen == 0 {
		return 0, errors.New("trainer: the train split yielded no examples")
	}
	return 100 * float64(correct) / float64(seen), nil
}
