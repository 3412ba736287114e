package tfrecord

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Feature is one value list of a tf.Example. Only one of the lists is set.
type Feature struct {
	Bytes  [][]byte
	Floats []float32
	Int64s []int64
}

// Example is a decoded tf.Example: feature name to value list
type Example map[string]Feature

// field numbers of the tf.Example messages
const (
	exampleFeatures  protowire.Number = 1
	featuresFeature  protowire.Number = 1
	entryKey         protowire.Number = 1
	entryValue       protowire.Number = 2
	featureBytesList protowire.Number = 1
	featureFloatList protowire.Number = 2
	featureInt64List protowire.Number = 3
	listValue        protowire.Number = 1
)

// ErrMissingFeature is returned by the typed accessors for an absent key
var ErrMissingFeature = errors.New("tfrecord: missing feature")

// walk calls fn for every field of the message b
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "tag")
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return errors.Wrapf(protowire.ParseError(m), "field %d", num)
		}
		if err := fn(num, typ, b[:m]); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func consumeBytes(value []byte) ([]byte, error) {
	v, n := protowire.ConsumeBytes(value)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return v, nil
}

// ParseExample decodes a serialized tf.Example
func ParseExample(b []byte) (Example, error) {
	e := make(Example)
	err := walk(b, func(num protowire.Number, typ protowire.Type, value []byte) error {
		if num != exampleFeatures || typ != protowire.BytesType {
			return nil
		}
		features, err := consumeBytes(value)
		if err != nil {
			return err
		}
		return walk(features, func(num protowire.Number, typ protowire.Type, value []byte) error {
			if num != featuresFeature || typ != protowire.BytesType {
				return nil
			}
			entry, err := consumeBytes(value)
			if err != nil {
				return err
			}
			return parseEntry(e, entry)
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse tf.Example")
	}
	return e, nil
}

func parseEntry(e Example, entry []byte) error {
	var key string
	var feature Feature
	err := walk(entry, func(num protowire.Number, typ protowire.Type, value []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		v, err := consumeBytes(value)
		if err != nil {
			return err
		}
		switch num {
		case entryKey:
			key = string(v)
		case entryValue:
			feature, err = parseFeature(v)
		}
		return err
	})
	if err != nil {
		return err
	}
	e[key] = feature
	return nil
}

func parseFeature(b []byte) (f Feature, err error) {
	err = walk(b, func(num protowire.Number, typ protowire.Type, value []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		list, err := consumeBytes(value)
		if err != nil {
			return err
		}
		switch num {
		case featureBytesList:
			f.Bytes = [][]byte{}
			return walk(list, func(num protowire.Number, typ protowire.Type, value []byte) error {
				if num != listValue || typ != protowire.BytesType {
					return nil
				}
				v, err := consumeBytes(value)
				if err != nil {
					return err
				}
				f.Bytes = append(f.Bytes, append([]byte(nil), v...))
				return nil
			})
		case featureFloatList:
			f.Floats = []float32{}
			return walk(list, func(num protowire.Number, typ protowire.Type, value []byte) error {
				if num != listValue {
					return nil
				}
				switch typ {
				case protowire.Fixed32Type:
					v, _ := protowire.ConsumeFixed32(value)
					f.Floats = append(f.Floats, math.Float32frombits(v))
				case protowire.BytesType:
					packed, err := consumeBytes(value)
					if err != nil {
						return err
					}
					for len(packed) > 0 {
						v, n := protowire.ConsumeFixed32(packed)
						if n < 0 {
							return protowire.ParseError(n)
						}
						f.Floats = append(f.Floats, math.Float32frombits(v))
						packed = packed[n:]
					}
				}
				return nil
			})
		case featureInt64List:
			f.Int64s = []int64{}
			return walk(list, func(num protowire.Number, typ protowire.Type, value []byte) error {
				if num != listValue {
					return nil
				}
				switch typ {
				case protowire.VarintType:
					v, _ := protowire.ConsumeVarint(value)
					f.Int64s = append(f.Int64s, int64(v))
				case protowire.BytesType:
					packed, err := consumeBytes(value)
					if err != nil {
						return err
					}
					for len(packed) > 0 {
						v, n := protowire.ConsumeVarint(packed)
						if n < 0 {
							return protowire.ParseError(n)
						}
						f.Int64s = append(f.Int64s, int64(v))
						packed = packed[n:]
					}
				}
				return nil
			})
		}
		return nil
	})
	return
}

// MarshalExample encodes e as a tf.Example with the keys in sorted order and
// numeric lists packed.
func MarshalExample(e Example) []byte {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var features []byte
	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, entryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, entryValue, protowire.BytesType)
		entry = protowire.AppendBytes(entry, marshalFeature(e[k]))

		features = protowire.AppendTag(features, featuresFeature, protowire.BytesType)
		features = protowire.AppendBytes(features, entry)
	}
	var out []byte
	out = protowire.AppendTag(out, exampleFeatures, protowire.BytesType)
	return protowire.AppendBytes(out, features)
}

func marshalFeature(f Feature) []byte {
	var list []byte
	var num protowire.Number
	switch {
	case f.Bytes != nil:
		num = featureBytesList
		for _, v := range f.Bytes {
			list = protowire.AppendTag(list, listValue, protowire.BytesType)
			list = protowire.AppendBytes(list, v)
		}
	case f.Floats != nil:
		num = featureFloatList
		var packed []byte
		for _, v := range f.Floats {
			packed = protowire.AppendFixed32(packed, math.Float32bits(v))
		}
		list = protowire.AppendTag(list, listValue, protowire.BytesType)
		list = protowire.AppendBytes(list, packed)
	default:
		num = featureInt64List
		var packed []byte
		for _, v := range f.Int64s {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		list = protowire.AppendTag(list, listValue, protowire.BytesType)
		list = protowire.AppendBytes(list, packed)
	}
	var out []byte
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, list)
}

// BytesFeature returns the first value of a bytes list
func (e Example) BytesFeature(key string) ([]byte, error) {
	f, ok := e[key]
	if !ok || len(f.Bytes) == 0 {
		return nil, errors.Wrapf(ErrMissingFeature, "bytes %q", key)
	}
	return f.Bytes[0], nil
}

// Int64Feature returns the first value of an int64 list
func (e Example) Int64Feature(key string) (int64, error) {
	f, ok := e[key]
	if !ok || len(f.Int64s) == 0 {
		return 0, errors.Wrapf(ErrMissingFeature, "int64 %q", key)
	}
	return f.Int64s[0], nil
}
