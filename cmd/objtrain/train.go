package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/objtrain/objtrain/config"
	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/learning"
	"github.com/objtrain/objtrain/metrics"
	"github.com/objtrain/objtrain/model"
	"github.com/objtrain/objtrain/sysinfo"
	"github.com/objtrain/objtrain/trainer"
)

// trainCmd runs the whole flow: metadata, pipeline, network, fit, evaluate, upload
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model on the dataset and upload it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		c, err := loadConfig()
		if err != nil {
			return err
		}
		return train(ctx, c)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	flags := trainCmd.Flags()
	flags.Int("epochs", 5, "training epochs")
	flags.Int("steps", 0, "steps per epoch, 0 retrains every hashtron once")
	flags.Int("window", 0, "batches a step learns from, 0 holds the whole epoch in memory")
	flags.Int("patience", 2, "epochs without validation improvement before stopping")
	flags.Float64("threshold", 50, "validation accuracy from which every hashtron is retrained")
	flags.Int("batch-size", 32, "examples per batch")
	flags.Int("shuffle-buffer", 1024, "shuffle buffer size")
	flags.Int("prefetch", 2, "batches prepared ahead")
	flags.Bool("cache", true, "keep the decoded dataset in memory when it fits")
	flags.Int("limit", 0, "examples per epoch, 0 reads everything")
	flags.Int("side", 16, "network input side, images are resized to it")
	flags.Int("kernel", 3, "convolution window side")
	flags.Int("pool", 4, "majority pool block side")
	flags.Uint32("premodulo", 0, "pre-modulo of the convolution features")
	flags.Int("threads", 0, "worker goroutines, 0 uses every core")
	flags.Int64("seed", 0, "shuffle seed")
	flags.String("checkpoint", "", "local file keeping the best weights, resumed from when present")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while training")
	bind(flags, map[string]string{
		"epochs":         "epochs",
		"steps":          "steps",
		"window":         "window",
		"patience":       "patience",
		"threshold":      "threshold",
		"batch_size":     "batch-size",
		"shuffle_buffer": "shuffle-buffer",
		"prefetch":       "prefetch",
		"cache":          "cache",
		"limit":          "limit",
		"side":           "side",
		"kernel":         "kernel",
		"pool":           "pool",
		"premodulo":      "premodulo",
		"threads":        "threads",
		"seed":           "seed",
		"checkpoint":     "checkpoint",
		"metrics_addr":   "metrics-addr",
	})
}

func threads(c *config.Config) int {
	if c.Threads > 0 {
		return c.Threads
	}
	return sysinfo.Threads()
}

// cacheFits estimates the decoded size of count examples
func cacheFits(c *config.Config, count int) bool {
	if !c.Cache {
		return false
	}
	if count == 0 {
		// unknown size, cache only small debug runs
		return c.Debug
	}
	per := uint64(c.Side*c.Side) + 64
	return sysinfo.FitsInMemory(uint64(count) * per)
}

func train(ctx context.Context, c *config.Config) error {
	key, err := c.ModelKey()
	if err != nil {
		return err
	}
	run := runID()
	log = log.With().Str("run", run).Str("dataset", c.Dataset).Logger()
	n := threads(c)
	log.Info().Str("cpu", sysinfo.CPU()).Int("threads", n).Bool("debug", c.Debug).Msg("training started")

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	if c.MetricsAddr != "" {
		srv, err := metrics.Listen(c.MetricsAddr, reg, log)
		if err != nil {
			return errors.Wrap(err, "metrics")
		}
		srv.Serve()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
	}

	store, err := openStore(ctx, c, c.Bucket)
	if err != nil {
		return err
	}
	meta, err := simulated.LoadMetadata(ctx, store, c.Dataset)
	if err != nil {
		return err
	}
	log.Info().Int("width", meta.ImageWidth).Int("height", meta.ImageHeight).
		Strs("labels", meta.Labels).Int("train", meta.Train.Count).Int("test", meta.Test.Count).
		Msg("metadata loaded")

	arch := c.Architecture(len(meta.Labels))
	net, err := arch.Build()
	if err != nil {
		return err
	}
	if resumed, err := trainer.Resume(net, c.Checkpoint); err != nil {
		return err
	} else if resumed {
		log.Info().Str("file", c.Checkpoint).Msg("weights resumed")
	}

	trainSet := simulated.NewPipeline(store, meta, c.Dataset, meta.Train, simulated.Options{
		Side:          c.Side,
		BatchSize:     c.BatchSize,
		ShuffleBuffer: c.ShuffleBuffer,
		Prefetch:      c.Prefetch,
		Parallelism:   n,
		Cache:         cacheFits(c, meta.Train.Count),
		Limit:         c.Limit,
		Seed:          c.Seed,
		Examples:      m.ExamplesRead,
		Logger:        log.With().Str("split", "train").Logger(),
	})
	testSet := simulated.NewPipeline(store, meta, c.Dataset, meta.Test, simulated.Options{
		Side:        c.Side,
		BatchSize:   c.BatchSize,
		Prefetch:    c.Prefetch,
		Parallelism: n,
		Cache:       true,
		Limit:       c.Limit,
		Examples:    m.ExamplesRead,
		Logger:      log.With().Str("split", "test").Logger(),
	})
	validation, err := testSet.Collect(ctx)
	if err != nil {
		return errors.Wrap(err, "read validation split")
	}

	hyper := learning.Default(n)
	hyper.Rand = c.Seed
	hyper.Logger = log
	opts := trainer.Options{
		Epochs:     c.Epochs,
		Steps:      c.Steps,
		Window:     c.Window,
		Patience:   c.Patience,
		Threshold:  c.Threshold,
		Checkpoint: c.Checkpoint,
		Threads:    n,
		Hyper:      hyper,
		Observer:   m,
		Logger:     log,
	}
	if c.Debug {
		opts = opts.Debug()
	}
	history, err := trainer.Fit(ctx, net, trainSet, validation, len(meta.Labels), opts)
	if err != nil {
		return err
	}
	log.Info().Int("epochs", history.Epochs).Int("best", history.Best).Bool("stopped", history.Stopped).
		Float64("baseline", history.Baseline).Float64("validation", history.BestValidation()).Msg("training finished")

	report := trainer.EvaluateSamples(net, validation, len(meta.Labels), n)
	m.Test(report.Accuracy)
	logReport(report, meta.Labels)

	output := store
	if c.OutputBucket != c.Bucket {
		if output, err = openStore(ctx, c, c.OutputBucket); err != nil {
			return err
		}
	}
	artifact := model.NewArtifact(model.Header{
		Dataset:      c.Dataset,
		Labels:       meta.Labels,
		Architecture: arch,
		Accuracy:     report.Accuracy,
		Run:          run,
	}, net)
	sum, err := model.Upload(ctx, output, key, artifact)
	if err != nil {
		return err
	}
	m.Uploaded()
	log.Info().Str("bucket", c.OutputBucket).Str("key", key).Str("xxhash", sum).Msg("model uploaded")
	return nil
}

func logReport(r trainer.Report, labels []string) {
	log.Info().Int("examples", r.Examples).Float64("accuracy", r.Accuracy).
		Float64("hamming", r.HammingLoss).Int("invalid", r.Invalid).Msg("evaluation")
	for i, row := range r.Confusion {
		log.Debug().Str("label", labels[i]).Str("predicted", fmt.Sprint(row)).Msg("confusion")
	}
}
