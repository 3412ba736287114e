package simulated

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/objtrain/objtrain/objstore"
	"github.com/objtrain/objtrain/tfrecord"
)

// Shapes are the labels of a generated dataset
var Shapes = []string{"circle", "square", "triangle", "cross"}

// GenerateOptions describe a generated dataset
type GenerateOptions struct {
	Name   string
	Size   int     // image side in pixels
	Train  int     // train examples
	Test   int     // test examples
	Shards int     // shards per split
	Noise  float64 // probability that a pixel is replaced by random grey
	Seed   int64

	// Labels picks the drawn shapes among Shapes, all of them when empty
	Labels []string

	Logger zerolog.Logger
}

func (o *GenerateOptions) normalize() error {
	if o.Name == "" {
		return errors.New("simulated: dataset name is required")
	}
	if o.Size == 0 {
		o.Size = 28
	}
	if o.Size < 8 {
		return errors.Errorf("simulated: image size %d is too small", o.Size)
	}
	if o.Train <= 0 || o.Test <= 0 {
		return errors.Errorf("simulated: %d train and %d test examples", o.Train, o.Test)
	}
	if o.Shards <= 0 {
		o.Shards = 1
	}
	if len(o.Labels) == 0 {
		o.Labels = Shapes
	}
	if len(o.Labels) < 2 {
		return errors.New("simulated: at least two shapes are required")
	}
	used := make(map[string]bool, len(o.Labels))
	for _, l := range o.Labels {
		known := false
		for _, s := range Shapes {
			known = known || s == l
		}
		if !known || used[l] {
			return errors.Errorf("simulated: unknown or repeated shape %q", l)
		}
		used[l] = true
	}
	return nil
}

// Generate draws noisy geometric shapes, writes them as PNG encoded
// tf.Examples into TFRecord shards and stores the metadata document last.
func Generate(ctx context.Context, store objstore.Store, opts GenerateOptions) (*Metadata, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	m := &Metadata{
		Name:        opts.Name,
		ImageHeight: opts.Size,
		ImageWidth:  opts.Size,
		Channels:    1,
		Labels:      opts.Labels,
		ImageKey:    "image",
		LabelKey:    "label",
	}
	var err error
	if m.Train, err = writeSplit(ctx, store, rng, opts, "train", opts.Train); err != nil {
		return nil, err
	}
	if m.Test, err = writeSplit(ctx, store, rng, opts, "test", opts.Test); err != nil {
		return nil, err
	}
	doc, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	err = store.Put(ctx, MetadataKey(opts.Name), doc, objstore.WithContentType("application/json"))
	if err != nil {
		return nil, errors.Wrap(err, "upload metadata")
	}
	return m, nil
}

func writeSplit(ctx context.Context, store objstore.Store, rng *rand.Rand, opts GenerateOptions, split string, count int) (Split, error) {
	s := Split{Count: count}
	shards := opts.Shards
	if shards > count {
		shards = count
	}
	for shard := 0; shard < shards; shard++ {
		name := fmt.Sprintf("%s-%05d-of-%05d.tfrecord", split, shard, shards)
		var buf bytes.Buffer
		w := tfrecord.NewWriter(&buf)
		n := count / shards
		if shard < count%shards {
			n++
		}
		for i := 0; i < n; i++ {
			label := rng.Intn(len(opts.Labels))
			raw, err := encodePNG(drawShape(rng, opts.Labels[label], opts.Size, opts.Noise))
			if err != nil {
				return s, err
			}
			record := tfrecord.MarshalExample(tfrecord.Example{
				"image": {Bytes: [][]byte{raw}},
				"label": {Int64s: []int64{int64(label)}},
			})
			if err := w.Write(record); err != nil {
				return s, err
			}
		}
		if err := store.Put(ctx, FileKey(opts.Name, name), buf.Bytes()); err != nil {
			return s, errors.Wrapf(err, "upload %s", name)
		}
		opts.Logger.Info().Str("file", name).Int("examples", n).Msg("shard written")
		s.Files = append(s.Files, name)
	}
	return s, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// drawShape draws shape with a random center, radius and brightness
func drawShape(rng *rand.Rand, shape string, size int, noise float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	s := float64(size)
	r := s * (0.22 + 0.12*rng.Float64())
	cx := r + 1 + rng.Float64()*(s-2*r-2)
	cy := r + 1 + rng.Float64()*(s-2*r-2)
	ink := uint8(160 + rng.Intn(96))
	thick := math.Max(1, r/4)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			var in bool
			switch shape {
			case "circle":
				in = dx*dx+dy*dy <= r*r
			case "square":
				in = math.Abs(dx) <= r*0.8 && math.Abs(dy) <= r*0.8
			case "triangle":
				// apex up, base at dy = r
				in = dy <= r && dy >= -r && math.Abs(dx) <= (dy+r)/2
			case "cross":
				in = (math.Abs(dx) <= thick && math.Abs(dy) <= r) ||
					(math.Abs(dy) <= thick && math.Abs(dx) <= r)
			}
			var v uint8
			if in {
				v = ink
			}
			if noise > 0 && rng.Float64() < noise {
				v = uint8(rng.Intn(256))
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
