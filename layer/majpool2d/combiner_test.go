package majpool2d

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestNewValidates(t *testing.T) {
	_, err := New(2, 2, 3, 3, 1)
	assert.Error(t, err)
	_, err = New(7, 7, 1, 1, 1)
	assert.Error(t, err)
	_, err = New(6, 6, 3, 3, 1)
	assert.NoError(t, err)
}

func TestFeatureMajority(t *testing.T) {
	l, err := New(4, 4, 2, 2, 1)
	require.NoError(t, err)
	c := l.Lay()
	// top left block: 3 of 4 set, top right: 2 of 4 (tie), bottom right: 4 of 4
	for _, p := range []int{0, 1, 4, 2, 7, 10, 11, 14, 15} {
		c.Put(p, true)
	}
	assert.Equal(t, uint32(0x9), c.Feature(0))
	assert.Equal(t, c.Feature(0), c.Feature(5))
}

// every block is reachable: a full block shows up in the feature
func TestEvery(t *testing.T) {
	l := MustNew(6, 6, 3, 3, 1)
	for q := 0; q < 36; q++ {
		c := l.Lay()
		base, ok := c.(*MajPool2D).block(q)
		require.True(t, ok)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				c.Put(base+i*6+j, true)
			}
		}
		assert.NotZero(t, c.Feature(0), "block of %d", q)
	}
}

func TestDisregard(t *testing.T) {
	l := MustNew(7, 6, 3, 3, 1)
	c := l.Lay()
	// remainder column is never pooled
	assert.True(t, c.Disregard(6))
	// empty block: one cell cannot reach a majority of 9
	assert.True(t, c.Disregard(0))
	// 4 other cells set: cell 0 decides the block
	for _, p := range []int{1, 2, 7, 8} {
		c.Put(p, true)
	}
	assert.False(t, c.Disregard(0))
	// 5 other cells set: majority regardless
	c.Put(9, true)
	assert.True(t, c.Disregard(0))
}

func TestRepeatSelectsGrid(t *testing.T) {
	l := MustNew(2, 2, 2, 2, 2)
	assert.Equal(t, 2, l.Outputs())
	c := l.Lay()
	for p := 4; p < 8; p++ {
		c.Put(p, true)
	}
	assert.Equal(t, uint32(0), c.Feature(0))
	assert.Equal(t, uint32(1), c.Feature(1))
}
