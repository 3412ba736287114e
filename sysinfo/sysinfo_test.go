package sysinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreads(t *testing.T) {
	n := Threads()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, runtime.GOMAXPROCS(0))
	assert.NotEmpty(t, CPU())
}

func TestFitsInMemory(t *testing.T) {
	if _, err := AvailableMemory(); err != nil {
		t.Skip(err)
	}
	assert.True(t, FitsInMemory(0))
	assert.False(t, FitsInMemory(^uint64(0)))
}
