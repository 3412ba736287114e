package datasets

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyCorrectOverridesImprove(t *testing.T) {
	var tally Tally
	tally.Init()

	tally.AddToImprove(1, 1, false)
	tally.AddToImprove(2, -1, false)
	tally.AddToCorrect(1, -1, false)
	tally.AddToCorrect(1, -1, false)
	assert.False(t, tally.GetImprovementPossible())

	d := tally.Dataset()
	assert.Equal(t, Dataset{1: false, 2: false}, d)
	assert.Equal(t, 3, tally.Len())
}

func TestTallyCancellingVotes(t *testing.T) {
	var tally Tally
	tally.Init()
	tally.AddToCorrect(5, 1, true)
	tally.AddToCorrect(5, -1, false)
	tally.AddToImprove(6, 0, true)
	assert.Empty(t, tally.Dataset())
	assert.True(t, tally.GetImprovementPossible())
}

func TestTallyConcurrentVotes(t *testing.T) {
	var tally Tally
	tally.Init()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tally.AddToCorrect(uint32(i%4), 1, true)
		}(i)
	}
	wg.Wait()
	d := tally.Dataset()
	assert.Len(t, d, 4)
	for _, v := range d {
		assert.True(t, v)
	}
	tally.Free()
	assert.Equal(t, 0, tally.Len())
}

func TestSplitAndBalance(t *testing.T) {
	d := Dataset{1: true, 2: true, 3: true, 4: false}
	sd := BalanceDataset(d.Split())
	assert.Len(t, sd[0], 3)
	assert.Len(t, sd[1], 3)
	_, ok := sd[0][4]
	assert.True(t, ok)
	for v := range sd[0] {
		_, clash := sd[1][v]
		assert.False(t, clash)
	}
	alphabet := sd.Alphabet()
	assert.Len(t, alphabet[0], 3)
	assert.Len(t, alphabet[1], 3)
}
