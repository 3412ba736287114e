// Package config gathers the settings of a run from flags, the environment
// and an optional YAML file.
package config

import (
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/objtrain/objtrain/model"
)

// Debug mode limits
const (
	DebugEpochs   = 1
	DebugSteps    = 10
	DebugExamples = 256
)

// Config is one run of objtrain
type Config struct {
	// object store
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	PathStyle    bool
	Bucket       string
	OutputBucket string

	Dataset   string
	User      string
	ModelName string

	// input pipeline
	BatchSize     int
	ShuffleBuffer int
	Prefetch      int
	Cache         bool
	Limit         int // examples per epoch, 0 reads everything

	// network and training
	Side      int
	Kernel    int
	Pool      int
	Premodulo uint32
	Epochs    int
	Steps     int
	Window    int // batches per step, 0 is the whole epoch
	Patience  int
	Threshold float64
	Threads   int
	Seed      int64

	Checkpoint  string
	MetricsAddr string
	Debug       bool
}

// env lists the environment variables of every key
var env = map[string][]string{
	"endpoint":      {"AWS_S3_ENDPOINT"},
	"access_key":    {"AWS_ACCESS_KEY_ID"},
	"secret_key":    {"AWS_SECRET_ACCESS_KEY"},
	"session_token": {"AWS_SESSION_TOKEN"},
	"region":        {"AWS_DEFAULT_REGION", "AWS_REGION"},
	"bucket":        {"OBJTRAIN_BUCKET"},
	"output_bucket": {"OBJTRAIN_OUTPUT_BUCKET"},
	"dataset":       {"OBJTRAIN_DATASET"},
	"user":          {"OBJTRAIN_USER", "USER"},
	"debug":         {"DEBUG"},
	"metrics_addr":  {"OBJTRAIN_METRICS_ADDR"},
}

// SetDefaults binds the environment and sets the defaults of v
func SetDefaults(v *viper.Viper) {
	for key, names := range env {
		v.BindEnv(append([]string{key}, names...)...)
	}
	v.SetDefault("region", "us-east-1")
	v.SetDefault("path_style", true)
	v.SetDefault("model_name", model.DefaultName)
	v.SetDefault("batch_size", 32)
	v.SetDefault("shuffle_buffer", 1024)
	v.SetDefault("prefetch", 2)
	v.SetDefault("cache", true)
	v.SetDefault("side", 16)
	v.SetDefault("kernel", 3)
	v.SetDefault("pool", 4)
	v.SetDefault("epochs", 5)
	v.SetDefault("patience", 2)
	v.SetDefault("threshold", 50.0)
}

// ReadFile reads the config file, the default one being
// $HOME/.objtrain/config.yaml. A missing default file is not an error.
func ReadFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		return errors.Wrap(v.ReadInConfig(), "read config")
	}
	home, err := homedir.Dir()
	if err != nil {
		return errors.Wrap(err, "find home directory")
	}
	v.AddConfigPath(filepath.Join(home, ".objtrain"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

// Load builds the Config from v, applying debug mode
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Endpoint:      v.GetString("endpoint"),
		Region:        v.GetString("region"),
		AccessKey:     v.GetString("access_key"),
		SecretKey:     v.GetString("secret_key"),
		SessionToken:  v.GetString("session_token"),
		PathStyle:     v.GetBool("path_style"),
		Bucket:        v.GetString("bucket"),
		OutputBucket:  v.GetString("output_bucket"),
		Dataset:       strings.Trim(v.GetString("dataset"), "/"),
		User:          v.GetString("user"),
		ModelName:     v.GetString("model_name"),
		BatchSize:     v.GetInt("batch_size"),
		ShuffleBuffer: v.GetInt("shuffle_buffer"),
		Prefetch:      v.GetInt("prefetch"),
		Cache:         v.GetBool("cache"),
		Limit:         v.GetInt("limit"),
		Side:          v.GetInt("side"),
		Kernel:        v.GetInt("kernel"),
		Pool:          v.GetInt("pool"),
		Premodulo:     v.GetUint32("premodulo"),
		Epochs:        v.GetInt("epochs"),
		Steps:         v.GetInt("steps"),
		Window:        v.GetInt("window"),
		Patience:      v.GetInt("patience"),
		Threshold:     v.GetFloat64("threshold"),
		Threads:       v.GetInt("threads"),
		Seed:          v.GetInt64("seed"),
		Checkpoint:    v.GetString("checkpoint"),
		MetricsAddr:   v.GetString("metrics_addr"),
		Debug:         v.GetBool("debug"),
	}
	if c.OutputBucket == "" {
		c.OutputBucket = c.Bucket
	}
	if c.Debug {
		c.Epochs = DebugEpochs
		c.Steps = DebugSteps
		if c.Limit == 0 || c.Limit > DebugExamples {
			c.Limit = DebugExamples
		}
	}
	return c, c.Validate()
}

// Validate reports the first unusable setting
func (c *Config) Validate() error {
	switch {
	case c.Bucket == "":
		return errors.New("config: bucket is required (OBJTRAIN_BUCKET)")
	case c.Dataset == "":
		return errors.New("config: dataset is required (OBJTRAIN_DATASET)")
	case c.AccessKey == "" && c.SecretKey != "", c.AccessKey != "" && c.SecretKey == "":
		return errors.New("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY go together")
	case c.BatchSize <= 0:
		return errors.Errorf("config: batch size %d", c.BatchSize)
	case c.Epochs <= 0:
		return errors.Errorf("config: %d epochs", c.Epochs)
	case c.Steps < 0 || c.Window < 0 || c.Patience < 0 || c.Limit < 0:
		return errors.New("config: steps, window, patience and limit cannot be negative")
	case c.ModelName == "" || strings.Contains(c.ModelName, "/"):
		return errors.Errorf("config: model name %q", c.ModelName)
	}
	return nil
}

// ModelKey is where the trained model is uploaded. The user is only
// required by the commands touching models.
func (c *Config) ModelKey() (string, error) {
	if c.User == "" {
		return "", errors.New("config: user is required (OBJTRAIN_USER or USER)")
	}
	return model.Key(c.User, c.Dataset, c.ModelName), nil
}

// Architecture is the network to build for classes labels
func (c *Config) Architecture(classes int) model.Architecture {
	return model.Architecture{
		Side:      c.Side,
		Kernel:    c.Kernel,
		Pool:      c.Pool,
		Premodulo: c.Premodulo,
		Classes:   classes,
	}
}
