// Package simulated loads the simulated image dataset kept in the object
// store: its metadata document, its TFRecord shards and the lazy input
// pipeline feeding the trainer.
package simulated

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/objtrain/objtrain/objstore"
)

// ErrInvalidMetadata is returned when the metadata document, or the data it
// describes, is not usable
var ErrInvalidMetadata = errors.New("simulated: invalid metadata")

// MetadataFile is the name of the metadata document inside the dataset directory
const MetadataFile = "metadata.json"

// Split lists the shards of one dataset split
type Split struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// Metadata describes a dataset
type Metadata struct {
	Name        string   `json:"name"`
	ImageHeight int      `json:"image_height"`
	ImageWidth  int      `json:"image_width"`
	Channels    int      `json:"channels"`
	Labels      []string `json:"labels"`
	ImageKey    string   `json:"image_key,omitempty"`
	LabelKey    string   `json:"label_key,omitempty"`
	Train       Split    `json:"train"`
	Test        Split    `json:"test"`
}

// MetadataKey is the object key of the metadata of dataset
func MetadataKey(dataset string) string {
	return path.Join(dataset, MetadataFile)
}

// LoadMetadata fetches and validates the metadata of dataset
func LoadMetadata(ctx context.Context, store objstore.Store, dataset string) (*Metadata, error) {
	data, err := store.Get(ctx, MetadataKey(dataset))
	if err != nil {
		return nil, errors.Wrap(err, "fetch metadata")
	}
	return ParseMetadata(data)
}

// ParseMetadata decodes and validates a metadata document
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrInvalidMetadata, "decode: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the fields and fills in the defaults
func (m *Metadata) Validate() error {
	if m.ImageHeight <= 0 || m.ImageWidth <= 0 {
		return errors.Wrapf(ErrInvalidMetadata, "image size %dx%d", m.ImageWidth, m.ImageHeight)
	}
	if m.Channels == 0 {
		m.Channels = 1
	}
	if m.Channels != 1 {
		return errors.Wrapf(ErrInvalidMetadata, "%d channels, only single channel images are supported", m.Channels)
	}
	if len(m.Labels) == 0 || len(m.Labels) > 1<<16 {
		return errors.Wrapf(ErrInvalidMetadata, "%d labels", len(m.Labels))
	}
	if len(m.Train.Files) == 0 {
		return errors.Wrap(ErrInvalidMetadata, "no train files")
	}
	if len(m.Test.Files) == 0 {
		return errors.Wrap(ErrInvalidMetadata, "no test files")
	}
	if m.ImageKey == "" {
		m.ImageKey = "image"
	}
	if m.LabelKey == "" {
		m.LabelKey = "label"
	}
	return nil
}

// FileKey resolves a file named by the metadata into an object key. Bare
// names live in the dataset directory.
func FileKey(dataset, file string) string {
	if strings.Contains(file, "/") {
		return strings.TrimPrefix(file, "/")
	}
	return path.Join(dataset, file)
}

// Keys resolves every file of split
func (s Split) Keys(dataset string) []string {
	keys := make([]string, len(s.Files))
	for i, f := range s.Files {
		keys[i] = FileKey(dataset, f)
	}
	return keys
}
