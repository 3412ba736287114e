package feedforward

import (
	"bytes"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objtrain/objtrain/datasets"
	"github.com/objtrain/objtrain/hashtron"
	"github.com/objtrain/objtrain/layer/conv2d"
	"github.com/objtrain/objtrain/layer/full"
)

type sample struct {
	feat []uint32
	out  uint16
}

func (s sample) Feature(n int) uint32 { return s.feat[n%len(s.feat)] }
func (s sample) Output() uint16       { return s.out }

func smallNet() FeedforwardNetwork {
	var net FeedforwardNetwork
	net.NewLayer(16)
	net.NewCombiner(conv2d.MustNew(4, 4, 2, 2, 1))
	net.NewLayer(9)
	net.NewCombiner(full.MustNew(9, 2))
	net.NewLayer(2)
	return net
}

func TestNetworkShape(t *testing.T) {
	net := smallNet()
	assert.Equal(t, 27, net.Len())
	assert.Equal(t, 5, net.LenLayers())
	assert.Equal(t, byte(2), net.GetBits())
	assert.Equal(t, uint32(4), net.GetClasses())
	assert.Equal(t, 0, net.GetLayer(15))
	assert.Equal(t, 2, net.GetLayer(16))
	assert.Equal(t, 0, net.GetPosition(16))
	assert.Equal(t, 4, net.GetLayer(26))
	assert.Equal(t, -1, net.GetLayer(27))
	assert.Nil(t, net.GetHashtron(27))
	assert.NotNil(t, net.GetHashtron(0))
}

func TestInferDeterministicAndInRange(t *testing.T) {
	net := smallNet()
	s := sample{feat: []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}
	first := net.Infer(s)
	assert.Less(t, first, net.GetClasses())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, net.Infer(s))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	net := smallNet()
	clone := net.Clone()
	h, err := hashtron.New([][2]uint32{{1, 2}}, 1)
	require.NoError(t, err)
	*clone.GetHashtron(26) = *h
	assert.NotEqual(t, net.GetHashtron(26).Program(), clone.GetHashtron(26).Program())
}

func TestForwardNegatesWorst(t *testing.T) {
	net := smallNet()
	s := sample{feat: []uint32{7}}
	_, a := net.Forward(s, 4, 1, false)
	_, b := net.Forward(s, 4, 1, true)
	assert.NotEqual(t, a, b)
}

func TestTallyVotesForBetterBit(t *testing.T) {
	var net FeedforwardNetwork
	net.NewLayer(1)
	s := sample{feat: []uint32{42}, out: 1}
	var tally datasets.Tally
	tally.Init()
	net.Tally(s, 0, &tally, func(actual, expected uint32) uint32 {
		if actual == expected {
			return 0
		}
		return 1
	})
	assert.Equal(t, datasets.Dataset{42: true}, tally.Dataset())
}

func TestSequenceAndBranch(t *testing.T) {
	net := smallNet()
	seq := net.Sequence(true, false)
	sorted := append([]int(nil), seq...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v)
	}
	rev := net.Sequence(false, true)
	assert.Equal(t, []int{25, 26}, rev[:2])
	assert.Equal(t, 0, rev[len(rev)-16])

	branch := net.Branch(true)
	require.Len(t, branch, 3)
	assert.Equal(t, 4, net.GetLayer(branch[0]))
	assert.Equal(t, 0, net.GetLayer(branch[2]))
}

func TestCompressedWeightsRoundTrip(t *testing.T) {
	net := smallNet()
	var buf bytes.Buffer
	require.NoError(t, net.WriteCompressedWeights(&buf))

	other := smallNet()
	require.NoError(t, other.ReadCompressedWeights(&buf))
	for i := 0; i < net.Len(); i++ {
		assert.Equal(t, net.GetHashtron(i).Program(), other.GetHashtron(i).Program())
	}

	file := filepath.Join(t.TempDir(), "weights.json.lzw")
	require.NoError(t, net.WriteCompressedWeightsToFile(file))
	third := smallNet()
	require.NoError(t, third.ReadCompressedWeightsFromFile(file))
	s := sample{feat: []uint32{3, 1, 4, 1, 5, 9, 2, 6}}
	assert.Equal(t, net.Infer(s), third.Infer(s))
}

func TestSetWeightsChecksCount(t *testing.T) {
	net := smallNet()
	assert.Error(t, net.SetWeights(nil))
}
