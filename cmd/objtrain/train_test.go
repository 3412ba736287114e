package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objtrain/objtrain/config"
	"github.com/objtrain/objtrain/datasets/simulated"
	"github.com/objtrain/objtrain/model"
	"github.com/objtrain/objtrain/objstore"
)

// memoryBuckets serves every bucket from memory for the duration of the test
func memoryBuckets(t *testing.T) map[string]*objstore.Memory {
	buckets := make(map[string]*objstore.Memory)
	saved := openStore
	openStore = func(ctx context.Context, c *config.Config, bucket string) (objstore.Store, error) {
		if buckets[bucket] == nil {
			buckets[bucket] = objstore.NewMemory()
		}
		return buckets[bucket], nil
	}
	t.Cleanup(func() { openStore = saved })
	return buckets
}

func TestTrainUploadsModel(t *testing.T) {
	ctx := context.Background()
	buckets := memoryBuckets(t)
	data, err := openStore(ctx, nil, "data")
	require.NoError(t, err)
	_, err = simulated.Generate(ctx, data, simulated.GenerateOptions{
		Name: "shapes", Size: 16, Train: 40, Test: 12, Shards: 2, Seed: 5,
	})
	require.NoError(t, err)

	c := &config.Config{
		Bucket:       "data",
		OutputBucket: "models",
		Dataset:      "shapes",
		User:         "ada",
		ModelName:    model.DefaultName,
		BatchSize:    8,
		Prefetch:     1,
		Cache:        true,
		Side:         8,
		Kernel:       2,
		Pool:         3,
		Epochs:       2,
		Steps:        3,
		Patience:     2,
		Threads:      2,
		Seed:         1,
		Checkpoint:   filepath.Join(t.TempDir(), "best.json.lzw"),
	}
	require.NoError(t, c.Validate())
	require.NoError(t, train(ctx, c))

	out := buckets["models"]
	require.NotNil(t, out)
	key := "ada/shapes/models/" + model.DefaultName
	assert.Equal(t, []string{key}, out.Keys())
	opts, ok := out.Options(key)
	require.True(t, ok)
	assert.Equal(t, objstore.ACLPublicRead, opts.ACL)

	artifact, err := model.Download(ctx, out, key)
	require.NoError(t, err)
	assert.Equal(t, "shapes", artifact.Header.Dataset)
	assert.Equal(t, simulated.Shapes, artifact.Header.Labels)
	assert.Equal(t, c.Architecture(4), artifact.Header.Architecture)
	_, err = artifact.Network()
	require.NoError(t, err)

	assert.FileExists(t, c.Checkpoint)
	assert.NotContains(t, buckets["data"].Keys(), key)
}

func TestTrainRequiresUser(t *testing.T) {
	memoryBuckets(t)
	c := &config.Config{Bucket: "data", Dataset: "shapes", ModelName: model.DefaultName}
	assert.Error(t, train(context.Background(), c))
}

func TestFailingCommandFlushesProfile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		rootCmd.SetArgs(nil)
		pgo = false
		cfgFile = ""
	})

	// the missing config file fails the command after the profile started
	rootCmd.SetArgs([]string{"--pgo", "--config", filepath.Join(dir, "missing.yaml"), "train"})
	require.Error(t, run())

	profileMu.Lock()
	assert.Nil(t, profileFile)
	profileMu.Unlock()
	info, err := os.Stat(filepath.Join(dir, "default.pgo"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
