package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return Load(v)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AWS_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("OBJTRAIN_BUCKET", "data")
	t.Setenv("OBJTRAIN_DATASET", "/shapes/")
	t.Setenv("OBJTRAIN_USER", "alice")
	t.Setenv("DEBUG", "")

	c, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", c.Endpoint)
	assert.Equal(t, "data", c.OutputBucket)
	assert.Equal(t, "shapes", c.Dataset)
	key, err := c.ModelKey()
	require.NoError(t, err)
	assert.Equal(t, "alice/shapes/models/model.json.lzw", key)
	assert.Equal(t, 5, c.Epochs)
	assert.Equal(t, 0, c.Steps)
	assert.Equal(t, 0, c.Window)
	assert.Equal(t, 16, c.Architecture(4).Side)
	assert.Equal(t, 4, c.Architecture(4).Pool)

	c.Window = -1
	assert.Error(t, c.Validate())
}

func TestUserFallsBackToUSER(t *testing.T) {
	t.Setenv("OBJTRAIN_BUCKET", "data")
	t.Setenv("OBJTRAIN_DATASET", "shapes")
	t.Setenv("OBJTRAIN_USER", "")
	t.Setenv("USER", "bob")
	c, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.User)
}

func TestDebugMode(t *testing.T) {
	t.Setenv("OBJTRAIN_BUCKET", "data")
	t.Setenv("OBJTRAIN_DATASET", "shapes")
	t.Setenv("OBJTRAIN_USER", "alice")
	t.Setenv("DEBUG", "1")
	c, err := load(t)
	require.NoError(t, err)
	assert.True(t, c.Debug)
	assert.Equal(t, DebugEpochs, c.Epochs)
	assert.Equal(t, DebugSteps, c.Steps)
	assert.Equal(t, DebugExamples, c.Limit)
}

func TestValidate(t *testing.T) {
	t.Setenv("OBJTRAIN_USER", "alice")
	t.Setenv("OBJTRAIN_BUCKET", "")
	_, err := load(t)
	assert.Error(t, err)

	t.Setenv("OBJTRAIN_BUCKET", "data")
	t.Setenv("OBJTRAIN_DATASET", "shapes")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err = load(t)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("bucket: files\ndataset: digits\nuser: carol\nepochs: 9\n"), 0o600))
	t.Setenv("OBJTRAIN_BUCKET", "")
	t.Setenv("OBJTRAIN_DATASET", "")
	t.Setenv("OBJTRAIN_USER", "")
	t.Setenv("DEBUG", "")

	v := viper.New()
	SetDefaults(v)
	require.NoError(t, ReadFile(v, file))
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "files", c.Bucket)
	assert.Equal(t, "digits", c.Dataset)
	assert.Equal(t, 9, c.Epochs)

	assert.Error(t, ReadFile(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestModelKeyNeedsUser(t *testing.T) {
	c := &Config{Dataset: "shapes", ModelName: "m"}
	_, err := c.ModelKey()
	assert.Error(t, err)
}
