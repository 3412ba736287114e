package trainer

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/net/feedforward"
	"github.com/objtrain/objtrain/parallel"
)

// Source yields one pass over a split per call
type Source interface {
	Epoch(ctx context.Context) *simulated.Batches
}

// Report is the outcome of an evaluation
type Report struct {
	Examples int
	Correct  int
	Accuracy float64 // percent of exact predictions

	// HammingLoss is the mean fraction of wrong output bits
	HammingLoss float64

	// Confusion counts expected (row) against predicted (column) labels.
	// Predictions outside of the label range are counted in Invalid.
	Confusion [][]int
	Invalid   int

	// Fingerprint hashes every prediction in order, equal fingerprints mean
	// the network answered the same set identically
	Fingerprint uint64
}

type evaluation struct {
	report  Report
	bits    int
	wrong   int
	fingers *xxhash.Digest
}

func newEvaluation(net *feedforward.FeedforwardNetwork, classes int) *evaluation {
	e := &evaluation{bits: int(net.GetBits()), fingers: xxhash.New()}
	e.report.Confusion = make([][]int, classes)
	for i := range e.report.Confusion {
		e.report.Confusion[i] = make([]int, classes)
	}
	return e
}

func (e *evaluation) add(batch []simulated.Sample, predicted []uint32) {
	var buf [2]byte
	for i, s := range batch {
		p, want := predicted[i], uint32(s.Label)
		e.report.Examples++
		if p == want {
			e.report.Correct++
		}
		e.wrong += bits.OnesCount32(p ^ want)
		if int(want) < len(e.report.Confusion) && int(p) < len(e.report.Confusion) {
			e.report.Confusion[want][p]++
		} else {
			e.report.Invalid++
		}
		binary.LittleEndian.PutUint16(buf[:], uint16(p))
		e.fingers.Write(buf[:])
	}
}

func (e *evaluation) done() Report {
	r := e.report
	if r.Examples > 0 {
		r.Accuracy = 100 * float64(r.Correct) / float64(r.Examples)
		if e.bits > 0 {
			r.HammingLoss = float64(e.wrong) / float64(r.Examples*e.bits)
		}
	}
	r.Fingerprint = e.fingers.Sum64()
	return r
}

func infer(net *feedforward.FeedforwardNetwork, batch []simulated.Sample, threads int) []uint32 {
	out := make([]uint32, len(batch))
	parallel.ForEach(len(batch), threads, func(i int) {
		out[i] = net.Infer(batch[i])
	})
	return out
}

// Evaluate runs net over one pass of src
func Evaluate(ctx context.Context, net *feedforward.FeedforwardNetwork, src Source, classes, threads int) (Report, error) {
	e := newEvaluation(net, classes)
	b := src.Epoch(ctx)
	defer b.Close()
	for {
		batch, err := b.Next()
		if err == io.EOF {
			return e.done(), nil
		}
		if err != nil {
			return Report{}, err
		}
		e.add(batch, infer(net, batch, threads))
	}
}

// EvaluateSamples runs net over samples held in memory
func EvaluateSamples(net *feedforward.FeedforwardNetwork, samples []simulated.Sample, classes, threads int) Report {
	e := newEvaluation(net, classes)
	e.add(samples, infer(net, samples, threads))
	return e.done()
}

// batchLoss sums the hamming distance of every prediction
func batchLoss(net *feedforward.FeedforwardNetwork, batch []simulated.Sample, threads int) (loss uint64) {
	var mu sync.Mutex
	parallel.ForEach(len(batch), threads, func(i int) {
		l := hamming(net.Infer(batch[i]), uint32(batch[i].Label))
		mu.Lock()
		loss += uint64(l)
		mu.Unlock()
	})
	return
}

func hamming(actual, expected uint32) uint32 {
	return uint32(bits.OnesCount32(actual ^ expected))
}

// sampleSize is the statistically sufficient sample of a set of n examples
// at significance (0-100) percent, worst case proportion 0.5.
func sampleSize(n int, significance byte) int {
	if significance == 0 || significance >= 100 {
		return n
	}
	z := zScore(100 - significance)
	p := 0.5
	e := float64(100-significance) * 0.01

	ss := z * z * p * (1 - p) / (e * e)
	corrected := ss * float64(n) / (float64(n) - 1 + ss)
	if int(math.Ceil(corrected)) > n {
		return n
	}
	return int(math.Ceil(corrected))
}

// zScore of the confidence 100-alpha percent
func zScore(alpha byte) float64 {
	switch {
	case alpha <= 1:
		return 2.576
	case alpha <= 5:
		return 1.96
	case alpha <= 10:
		return 1.645
	default:
		return 1.96
	}
}
