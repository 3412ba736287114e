package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/objtrain/objtrain/config"
	"github.com/objtrain/objtrain/objstore"
)

var (
	cfgFile string
	verbose bool
	pgo     bool
	log     zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "objtrain",
	Short: "Train an image classifier on a dataset kept in object storage",
	Long: `Train a hashtron image classifier on a TFRecord dataset kept in an
S3-compatible object store:
  objtrain simulate --train 2000 --test 500
  objtrain train
  objtrain evaluate`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
		if pgo {
			startProfile("default.pgo")
		}
		return config.ReadFile(viper.GetViper(), cfgFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfile()
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("objtrain failed")
		os.Exit(1)
	}
}

// run executes the command line. A failing command skips the post run hook,
// the profile is flushed here too.
func run() error {
	defer stopProfile()
	return rootCmd.Execute()
}

func init() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.objtrain/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&pgo, "pgo", false, "write a CPU profile to default.pgo")
	flags.String("endpoint", "", "S3 endpoint URL (AWS_S3_ENDPOINT)")
	flags.String("bucket", "", "bucket holding the dataset (OBJTRAIN_BUCKET)")
	flags.String("output-bucket", "", "bucket receiving the model, defaults to --bucket (OBJTRAIN_OUTPUT_BUCKET)")
	flags.String("dataset", "", "dataset directory inside the bucket (OBJTRAIN_DATASET)")
	flags.String("user", "", "owner of the uploaded model (OBJTRAIN_USER)")
	flags.String("model-name", "", "model file name under <user>/<dataset>/models/, a hashtron artifact rather than a Keras model.h5")
	flags.Bool("debug", false, "one short epoch on a few examples (DEBUG)")
	bind(flags, map[string]string{
		"endpoint":      "endpoint",
		"bucket":        "bucket",
		"output_bucket": "output-bucket",
		"dataset":       "dataset",
		"user":          "user",
		"model_name":    "model-name",
		"debug":         "debug",
	})
}

// bind connects viper keys to the flags of the same setting
func bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// loadConfig reads the settings of the current command
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore connects to bucket with the credentials of c
var openStore = func(ctx context.Context, c *config.Config, bucket string) (objstore.Store, error) {
	s, err := objstore.NewS3(ctx, objstore.S3Config{
		Endpoint:     c.Endpoint,
		Region:       c.Region,
		AccessKey:    c.AccessKey,
		SecretKey:    c.SecretKey,
		SessionToken: c.SessionToken,
		Bucket:       bucket,
		PathStyle:    c.PathStyle,
	}, log.With().Str("bucket", bucket).Logger())
	if err != nil {
		return nil, errors.Wrap(err, "connect to object store")
	}
	return s, nil
}

// runID names one invocation in the logs and the model header
func runID() string {
	return uuid.NewString()
}
