package main

import (
	"github.com/spf13/cobra"

	"github.com/objtrain/objtrain/datasets/simulated"
)

var generate simulated.GenerateOptions

// simulateCmd uploads a generated dataset of noisy shapes
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate a dataset of noisy shapes and upload it",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), c, c.Bucket)
		if err != nil {
			return err
		}
		opts := generate
		opts.Name = c.Dataset
		opts.Logger = log
		m, err := simulated.Generate(cmd.Context(), store, opts)
		if err != nil {
			return err
		}
		log.Info().Str("dataset", m.Name).Int("train", m.Train.Count).Int("test", m.Test.Count).
			Msg("dataset uploaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	flags := simulateCmd.Flags()
	flags.IntVar(&generate.Size, "size", 28, "image side in pixels")
	flags.IntVar(&generate.Train, "train", 2000, "train examples")
	flags.IntVar(&generate.Test, "test", 500, "test examples")
	flags.IntVar(&generate.Shards, "shards", 4, "shards per split")
	flags.Float64Var(&generate.Noise, "noise", 0.05, "probability of a noisy pixel")
	flags.Int64Var(&generate.Seed, "seed", 1, "generator seed")
	flags.StringSliceVar(&generate.Labels, "shapes", nil, "shapes to draw, all of them when empty")
}
