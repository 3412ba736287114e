package simulated

import (
	"context"
	"io"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/objtrain/objtrain/objstore"
	"github.com/objtrain/objtrain/parallel"
	"github.com/objtrain/objtrain/tfrecord"
)

// Options shape the input pipeline
type Options struct {
	Side          int   // network input side, images are resized to Side x Side
	BatchSize     int   // examples per batch, the last batch of an epoch may be shorter
	ShuffleBuffer int   // 0 or 1 disables shuffling
	Prefetch      int   // batches prepared ahead of the consumer
	Parallelism   int   // concurrent shard readers and example parsers
	Cache         bool  // keep the decoded examples after the first full pass
	Limit         int   // examples per epoch, 0 means all
	Seed          int64 // shuffle seed, mixed with the epoch number

	// Examples is called for every example read from the store
	Examples func(n int)

	Logger zerolog.Logger
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.Prefetch <= 0 {
		o.Prefetch = 1
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
}

// Pipeline streams the samples of one split. It is lazy: nothing is read
// before Epoch is called.
type Pipeline struct {
	store objstore.Store
	meta  *Metadata
	keys  []string
	opts  Options

	mu     sync.Mutex
	cache  []Sample
	cached bool
	epoch  int64
}

// NewPipeline prepares the pipeline of split
func NewPipeline(store objstore.Store, meta *Metadata, dataset string, split Split, opts Options) *Pipeline {
	opts.normalize()
	return &Pipeline{store: store, meta: meta, keys: split.Keys(dataset), opts: opts}
}

// Batches is the consumer side of one epoch
type Batches struct {
	out    <-chan []Sample
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Next returns the next batch, io.EOF after the last one
func (b *Batches) Next() ([]Sample, error) {
	batch, ok := <-b.out
	if ok {
		return batch, nil
	}
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return nil, io.EOF
}

// Close stops the epoch and waits for its goroutines
func (b *Batches) Close() {
	b.cancel()
	for range b.out {
	}
	<-b.done
}

func (b *Batches) fail(err error) {
	b.mu.Lock()
	if b.err == nil {
		b.err = err
	}
	b.mu.Unlock()
	b.cancel()
}

// Epoch starts one pass over the split: read, parse, shuffle, batch and
// prefetch on background goroutines.
func (p *Pipeline) Epoch(ctx context.Context) *Batches {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []Sample, p.opts.Prefetch)
	b := &Batches{out: out, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	cached := p.cached
	p.mu.Unlock()

	samples := make(chan Sample, p.opts.BatchSize)
	var sources sync.WaitGroup
	sources.Add(1)
	go func() {
		defer sources.Done()
		defer close(samples)
		if cached {
			p.replay(ctx, samples)
			return
		}
		if err := p.read(ctx, samples); err != nil {
			b.fail(err)
		}
	}()

	go func() {
		defer close(b.done)
		defer close(out)
		var collected []Sample
		collect := p.opts.Cache && !cached && p.opts.Limit == 0
		rng := rand.New(rand.NewSource(p.opts.Seed + epoch))
		var batch []Sample
		var emitted int
		emit := func(s Sample) bool {
			if p.opts.Limit > 0 && emitted >= p.opts.Limit {
				return false
			}
			emitted++
			batch = append(batch, s)
			if len(batch) == p.opts.BatchSize {
				select {
				case out <- batch:
				case <-ctx.Done():
					return false
				}
				batch = nil
			}
			return true
		}
		var buffer []Sample
		var stopped bool
		for s := range samples {
			if collect {
				collected = append(collected, s)
			}
			if stopped {
				continue
			}
			if p.opts.ShuffleBuffer <= 1 {
				stopped = !emit(s)
				continue
			}
			if len(buffer) < p.opts.ShuffleBuffer {
				buffer = append(buffer, s)
				continue
			}
			i := rng.Intn(len(buffer))
			buffer[i], s = s, buffer[i]
			stopped = !emit(s)
		}
		rng.Shuffle(len(buffer), func(i, j int) { buffer[i], buffer[j] = buffer[j], buffer[i] })
		for _, s := range buffer {
			if stopped || !emit(s) {
				break
			}
		}
		sources.Wait()
		if ctx.Err() != nil {
			b.mu.Lock()
			if b.err == nil {
				b.err = ctx.Err()
			}
			b.mu.Unlock()
			return
		}
		if len(batch) > 0 {
			out <- batch
		}
		if collect {
			p.mu.Lock()
			p.cache = collected
			p.cached = true
			p.mu.Unlock()
			p.opts.Logger.Debug().Int("examples", len(collected)).Msg("dataset cached in memory")
		}
	}()
	return b
}

func (p *Pipeline) replay(ctx context.Context, samples chan<- Sample) {
	p.mu.Lock()
	cache := p.cache
	p.mu.Unlock()
	for _, s := range cache {
		select {
		case samples <- s:
		case <-ctx.Done():
			return
		}
	}
}

// read streams the shards concurrently and parses the records on
// Parallelism goroutines
func (p *Pipeline) read(ctx context.Context, samples chan<- Sample) error {
	records := make(chan []byte, p.opts.Parallelism*4)
	var errMu sync.Mutex
	var firstErr error
	setErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		defer close(records)
		parallel.ForEach(len(p.keys), p.opts.Parallelism, func(i int) {
			if err := p.readShard(ctx, p.keys[i], records); err != nil {
				setErr(err)
				cancel()
			}
		})
	}()

	parallel.ForEach(p.opts.Parallelism, p.opts.Parallelism, func(int) {
		for record := range records {
			if ctx.Err() != nil {
				continue
			}
			s, err := ParseSample(record, p.meta, p.opts.Side)
			if err != nil {
				setErr(errors.Wrap(err, "parse example"))
				cancel()
				continue
			}
			if p.opts.Examples != nil {
				p.opts.Examples(1)
			}
			select {
			case samples <- s:
			case <-ctx.Done():
			}
		}
	})
	readers.Wait()
	return firstErr
}

func (p *Pipeline) readShard(ctx context.Context, key string, records chan<- []byte) error {
	body, err := p.store.Open(ctx, key)
	if err != nil {
		return errors.Wrap(err, "open shard")
	}
	defer body.Close()
	r := tfrecord.NewReader(body)
	var n int
	for {
		record, err := r.Next()
		if err == io.EOF {
			p.opts.Logger.Debug().Str("key", key).Int("records", n).Msg("shard read")
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "shard %s record %d", key, n)
		}
		n++
		select {
		case records <- record:
		case <-ctx.Done():
			return nil
		}
	}
}

// Collect reads a whole epoch into memory
func (p *Pipeline) Collect(ctx context.Context) ([]Sample, error) {
	b := p.Epoch(ctx)
	defer b.Close()
	var all []Sample
	for {
		batch, err := b.Next()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
}
