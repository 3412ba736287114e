// Package objstore is the object storage layer: an S3 client for the real
// store and an in-memory store for tests.
package objstore

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned for a key which does not exist
var ErrNotFound = errors.New("objstore: object not found")

// ACL is a canned access control list
type ACL string

// Canned ACLs understood by S3-compatible stores
const (
	ACLPrivate    ACL = "private"
	ACLPublicRead ACL = "public-read"
)

// PutOptions describe how an object is written
type PutOptions struct {
	ACL         ACL
	ContentType string
	Metadata    map[string]string
}

// PutOption mutates PutOptions
type PutOption func(*PutOptions)

// WithACL sets the canned ACL of the object
func WithACL(acl ACL) PutOption {
	return func(o *PutOptions) { o.ACL = acl }
}

// WithContentType sets the content type of the object
func WithContentType(ct string) PutOption {
	return func(o *PutOptions) { o.ContentType = ct }
}

// WithMetadata adds a user metadata entry
func WithMetadata(key, value string) PutOption {
	return func(o *PutOptions) {
		if o.Metadata == nil {
			o.Metadata = make(map[string]string)
		}
		o.Metadata[key] = value
	}
}

func buildPutOptions(opts []PutOption) PutOptions {
	o := PutOptions{ContentType: "application/octet-stream"}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Info describes a stored object
type Info struct {
	Key      string
	Size     int64
	Metadata map[string]string
}

// Store reads and writes objects of one bucket
type Store interface {
	// Open streams the object at key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Get reads the whole object at key
	Get(ctx context.Context, key string) ([]byte, error)

	// Head describes the object at key
	Head(ctx context.Context, key string) (Info, error)

	// Put writes body at key
	Put(ctx context.Context, key string, body []byte, opts ...PutOption) error
}
