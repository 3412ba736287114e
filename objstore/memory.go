package objstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type memObject struct {
	body []byte
	opts PutOptions
}

// Memory is a Store keeping objects in a map
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

// Open streams the object at key
func (m *Memory) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Get reads the whole object at key
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "memory://%s", key)
	}
	return append([]byte(nil), o.body...), nil
}

// Head describes the object at key
func (m *Memory) Head(ctx context.Context, key string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return Info{}, errors.Wrapf(ErrNotFound, "memory://%s", key)
	}
	return Info{Key: key, Size: int64(len(o.body)), Metadata: o.opts.Metadata}, nil
}

// Put writes body at key
func (m *Memory) Put(ctx context.Context, key string, body []byte, opts ...PutOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = memObject{body: append([]byte(nil), body...), opts: buildPutOptions(opts)}
	m.mu.Unlock()
	return nil
}

// Options reports the options the object at key was written with
func (m *Memory) Options(key string) (PutOptions, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.opts, ok
}

// Keys lists the stored keys in order
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
