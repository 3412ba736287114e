package learning

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objtrain/objtrain/datasets"
)

func trainTally(t *testing.T, d datasets.Dataset) {
	t.Helper()
	trainTallyBalanced(t, d, false)
}

func trainTallyBalanced(t *testing.T, d datasets.Dataset, balance bool) {
	t.Helper()
	var tally datasets.Tally
	tally.Init()
	for k, v := range d {
		vote := int8(-1)
		if v {
			vote = 1
		}
		tally.AddToCorrect(k, vote, true)
	}
	h := Default(2)
	h.Rand = 7
	h.Balance = balance
	tron, err := h.Training(&tally)
	require.NoError(t, err)
	for k, v := range d {
		got := tron.Forward(k, false)&1 != 0
		assert.Equal(t, v, got, "feature %d", k)
	}
}

func TestTrainingReproducesVotes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := make(datasets.Dataset)
	for len(d) < 300 {
		d[rng.Uint32()] = rng.Intn(2) == 1
	}
	trainTally(t, d)
}

func TestTrainingSmallFeatures(t *testing.T) {
	d := make(datasets.Dataset)
	for i := uint32(0); i < 256; i++ {
		d[i] = (i*7)%3 == 0
	}
	trainTally(t, d)
}

func TestTrainingOneSided(t *testing.T) {
	trainTally(t, datasets.Dataset{1: true, 2: true, 3: true})
	trainTally(t, datasets.Dataset{4: false})
}

func TestTrainingBalanced(t *testing.T) {
	d := make(datasets.Dataset)
	for i := uint32(0); i < 40; i++ {
		d[i*977] = i%5 == 0
	}
	trainTallyBalanced(t, d, true)
}

func TestTrainingEmptyTally(t *testing.T) {
	var tally datasets.Tally
	tally.Init()
	h := Default(1)
	_, err := h.Training(&tally)
	assert.ErrorIs(t, err, ErrNoImprovement)
}

func TestReducingStuckReportsNoSolution(t *testing.T) {
	h := Default(1)
	h.Attempts = 1
	h.Retries = 1
	h.MaxSteps = 1
	h.Shuffle = false
	alphabet := [2][]uint32{make([]uint32, 0, 200), make([]uint32, 0, 200)}
	for i := uint32(0); i < 200; i++ {
		alphabet[0] = append(alphabet[0], 2*i)
		alphabet[1] = append(alphabet[1], 2*i+1)
	}
	_, err := h.Reducing(alphabet)
	assert.ErrorIs(t, err, ErrNoSolution)
}
