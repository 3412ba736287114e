package model

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objtrain/objtrain/net/feedforward"
	"github.com/objtrain/objtrain/objstore"
)

type pixels struct {
	seed uint32
}

func (p pixels) Feature(n int) uint32 {
	return (uint32(n)*2654435761 ^ p.seed) & 0xff
}

func TestKey(t *testing.T) {
	assert.Equal(t, "alice/shapes/models/model.json.lzw", Key("alice", "shapes", DefaultName))
}

func TestBits(t *testing.T) {
	for classes, bits := range map[int]int{2: 1, 3: 2, 4: 2, 5: 3, 10: 4, 256: 8} {
		assert.Equal(t, bits, Architecture{Classes: classes}.Bits(), "classes %d", classes)
	}
}

func TestBuildDefault(t *testing.T) {
	net, err := DefaultArchitecture(4).Build()
	require.NoError(t, err)
	assert.Equal(t, 5, net.LenLayers())
	assert.Equal(t, 15*15+13*13+2, net.Len())
	assert.Equal(t, byte(2), net.GetBits())
	assert.Less(t, net.Infer(pixels{seed: 1}), uint32(4))
}

func TestBuildSmallUsesFull(t *testing.T) {
	net, err := Architecture{Side: 6, Kernel: 3, Classes: 2}.Build()
	require.NoError(t, err)
	assert.Equal(t, 25+9+1, net.Len())
}

func TestValidate(t *testing.T) {
	for _, a := range []Architecture{
		{Side: 16, Kernel: 3, Pool: 3, Classes: 1},
		{Side: 2, Kernel: 1, Pool: 1, Classes: 2},
		{Side: 16, Kernel: 6, Pool: 3, Classes: 2},
		{Side: 16, Kernel: 3, Pool: 2, Classes: 2},
		{Side: 16, Kernel: 3, Pool: 0, Classes: 2},
	} {
		assert.Error(t, a.Validate(), "%+v", a)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	arch := DefaultArchitecture(3)
	net, err := arch.Build()
	require.NoError(t, err)
	a := NewArtifact(Header{Dataset: "shapes", Labels: []string{"a", "b", "c"}, Architecture: arch, Run: "r1"}, net)

	var buf bytes.Buffer
	require.NoError(t, a.Write(&buf))
	b, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.Header.Labels, b.Header.Labels)
	assert.Equal(t, Format, b.Header.Format)

	loaded, err := b.Network()
	require.NoError(t, err)
	for seed := uint32(0); seed < 50; seed++ {
		assert.Equal(t, net.Infer(pixels{seed: seed}), loaded.Infer(pixels{seed: seed}))
	}
}

func TestArtifactWrongWeights(t *testing.T) {
	a := &Artifact{Header: Header{Format: Format, Architecture: DefaultArchitecture(2)}}
	_, err := a.Network()
	assert.Error(t, err)
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	arch := Architecture{Side: 6, Kernel: 3, Classes: 2}
	net, err := arch.Build()
	require.NoError(t, err)
	key := Key("bob", "toy", DefaultName)

	sum, err := Upload(ctx, store, key, NewArtifact(Header{Architecture: arch}, net))
	require.NoError(t, err)
	opts, ok := store.Options(key)
	require.True(t, ok)
	assert.Equal(t, objstore.ACLPublicRead, opts.ACL)
	assert.Equal(t, sum, opts.Metadata[ChecksumKey])

	a, err := Download(ctx, store, key)
	require.NoError(t, err)
	_, err = a.Network()
	require.NoError(t, err)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	data[len(data)-1] ^= 1
	require.NoError(t, store.Put(ctx, key, data, objstore.WithMetadata(ChecksumKey, sum)))
	_, err = Download(ctx, store, key)
	assert.True(t, errors.Is(err, ErrChecksum))

	_, err = Download(ctx, store, "missing")
	assert.True(t, errors.Is(err, objstore.ErrNotFound))
}

var _ feedforward.FeedforwardNetworkInput = pixels{}
