package model

import (
	"bytes"
	"compress/lzw"
	"context"
	"encoding/json"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/hashtron"
	"github.com/objtrain/objtrain/net/feedforward"
	"github.com/objtrain/objtrain/objstore"
)

// Format is the version of the artifact layout
const Format = 1

// DefaultName is the artifact file name used when none is configured
const DefaultName = "model.json.lzw"

// ChecksumKey is the object metadata entry holding the artifact checksum
const ChecksumKey = "xxhash"

// ErrChecksum is returned when a downloaded artifact does not match its checksum
var ErrChecksum = errors.New("model: checksum mismatch")

// Header describes the artifact
type Header struct {
	Format       int          `json:"format"`
	Dataset      string       `json:"dataset"`
	Labels       []string     `json:"labels"`
	Architecture Architecture `json:"architecture"`
	Accuracy     float64      `json:"accuracy"`
	Run          string       `json:"run"`
	Created      time.Time    `json:"created"`
}

// Artifact is a trained network with its header
type Artifact struct {
	Header  Header              `json:"header"`
	Weights []hashtron.Hashtron `json:"weights"`
}

// Key is the object key of artifact name: <user>/<dataset>/models/<name>
func Key(user, dataset, name string) string {
	return path.Join(user, dataset, "models", name)
}

// NewArtifact captures the weights of net
func NewArtifact(h Header, net *feedforward.FeedforwardNetwork) *Artifact {
	h.Format = Format
	if h.Created.IsZero() {
		h.Created = time.Now().UTC()
	}
	return &Artifact{Header: h, Weights: net.Weights()}
}

// Network rebuilds the network and loads the weights into it
func (a *Artifact) Network() (*feedforward.FeedforwardNetwork, error) {
	net, err := a.Header.Architecture.Build()
	if err != nil {
		return nil, err
	}
	if err := net.SetWeights(a.Weights); err != nil {
		return nil, errors.Wrap(err, "model")
	}
	if len(a.Header.Labels) > int(net.GetClasses()) {
		return nil, errors.Errorf("model: %d labels do not fit %d output bits", len(a.Header.Labels), net.GetBits())
	}
	return net, nil
}

// Write encodes the artifact as LZW compressed JSON
func (a *Artifact) Write(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	if err := json.NewEncoder(lw).Encode(a); err != nil {
		lw.Close()
		return errors.Wrap(err, "encode artifact")
	}
	return lw.Close()
}

// Read decodes an artifact written by Write
func Read(r io.Reader) (*Artifact, error) {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()
	var a Artifact
	if err := json.NewDecoder(lr).Decode(&a); err != nil {
		return nil, errors.Wrap(err, "decode artifact")
	}
	if a.Header.Format != Format {
		return nil, errors.Errorf("model: unsupported artifact format %d", a.Header.Format)
	}
	return &a, nil
}

// Checksum is the hex xxhash64 of data
func Checksum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Upload writes the artifact at key readable by anyone, its checksum in the
// object metadata. It returns the checksum.
func Upload(ctx context.Context, store objstore.Store, key string, a *Artifact) (string, error) {
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		return "", err
	}
	sum := Checksum(buf.Bytes())
	err := store.Put(ctx, key, buf.Bytes(),
		objstore.WithACL(objstore.ACLPublicRead),
		objstore.WithMetadata(ChecksumKey, sum))
	if err != nil {
		return "", errors.Wrap(err, "upload artifact")
	}
	return sum, nil
}

// Download fetches the artifact at key and verifies its checksum when the
// object carries one.
func Download(ctx context.Context, store objstore.Store, key string) (*Artifact, error) {
	info, err := store.Head(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "download artifact")
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "download artifact")
	}
	for k, want := range info.Metadata {
		if strings.EqualFold(k, ChecksumKey) && want != Checksum(data) {
			return nil, errors.Wrapf(ErrChecksum, "%s: stored %s, computed %s", key, want, Checksum(data))
		}
	}
	return Read(bytes.NewReader(data))
}
