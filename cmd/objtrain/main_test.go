package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objtrain/objtrain/config"
)

func TestCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"train", "evaluate", "simulate", "export"} {
		assert.Contains(t, names, want)
	}
	assert.Contains(t, rootCmd.PersistentFlags().Lookup("model-name").Usage, "<user>/<dataset>/models/")
}

func TestFlagsReachConfig(t *testing.T) {
	t.Setenv("OBJTRAIN_BUCKET", "data")
	t.Setenv("OBJTRAIN_DATASET", "shapes")
	t.Setenv("DEBUG", "")
	require.NoError(t, trainCmd.Flags().Set("epochs", "7"))
	require.NoError(t, trainCmd.Flags().Set("batch-size", "4"))
	c, err := config.Load(viper.GetViper())
	require.NoError(t, err)
	assert.Equal(t, 7, c.Epochs)
	assert.Equal(t, 4, c.BatchSize)
}

func TestCacheFits(t *testing.T) {
	c := &config.Config{Side: 16}
	assert.False(t, cacheFits(c, 100))
	c.Cache = true
	assert.False(t, cacheFits(c, 0))
	c.Debug = true
	assert.True(t, cacheFits(c, 0))
	assert.False(t, cacheFits(c, 1<<40))
}

func TestThreads(t *testing.T) {
	assert.Equal(t, 3, threads(&config.Config{Threads: 3}))
	assert.GreaterOrEqual(t, threads(&config.Config{}), 1)
}
