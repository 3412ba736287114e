package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/model"
	"github.com/objtrain/objtrain/trainer"
)

var evaluateKey string

// evaluateCmd downloads an uploaded model and scores it on the test split
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the uploaded model on the test split",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		c, err := loadConfig()
		if err != nil {
			return err
		}
		key := evaluateKey
		if key == "" {
			if key, err = c.ModelKey(); err != nil {
				return err
			}
		}
		output, err := openStore(ctx, c, c.OutputBucket)
		if err != nil {
			return err
		}
		artifact, err := model.Download(ctx, output, key)
		if err != nil {
			return err
		}
		net, err := artifact.Network()
		if err != nil {
			return err
		}
		log.Info().Str("key", key).Str("run", artifact.Header.Run).
			Float64("accuracy", artifact.Header.Accuracy).Msg("model downloaded")

		store, err := openStore(ctx, c, c.Bucket)
		if err != nil {
			return err
		}
		meta, err := simulated.LoadMetadata(ctx, store, c.Dataset)
		if err != nil {
			return err
		}
		n := threads(c)
		test := simulated.NewPipeline(store, meta, c.Dataset, meta.Test, simulated.Options{
			Side:        artifact.Header.Architecture.Side,
			BatchSize:   c.BatchSize,
			Prefetch:    c.Prefetch,
			Parallelism: n,
			Limit:       c.Limit,
			Logger:      log,
		})
		report, err := trainer.Evaluate(ctx, net, test, len(meta.Labels), n)
		if err != nil {
			return err
		}
		logReport(report, meta.Labels)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateKey, "key", "", "model object key, defaults to <user>/<dataset>/models/<model name>")
}
