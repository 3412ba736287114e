package hashtron

import (
	"bytes"
	"errors"
	"strconv"
)

func validName(name string) bool {
	for _, c := range name {
		if !(('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

// BytesBuffer renders the hashtron as Go variable declarations named
// program<name>Bits and program<name>. The line separator eol defaults to
// "\n"; "; " puts the whole program on one line.
func (h Hashtron) BytesBuffer(name string, eol ...byte) (*bytes.Buffer, error) {
	sep := []byte{'\n'}
	switch {
	case len(eol) == 0:
	case len(eol) == 1 && (eol[0] == '\n' || eol[0] == ';'):
		sep = eol
	case len(eol) == 2 && (string(eol) == "\r\n" || string(eol) == "; "):
		sep = eol
	default:
		return nil, errors.New("hashtron: invalid line separator")
	}
	if !validName(name) {
		return nil, errors.New("hashtron: invalid name")
	}
	inline := sep[0] == ';'
	item := sep
	if inline {
		item = []byte{' '}
	}

	b := new(bytes.Buffer)
	b.WriteString("var program" + name + "Bits byte = " + strconv.Itoa(int(h.bits)))
	b.Write(sep)
	b.WriteString("var program" + name + " = [][2]uint32{")
	if !inline {
		b.Write(sep)
	}
	for _, v := range h.program {
		if !inline {
			b.WriteByte('\t')
		}
		b.WriteString("{" + strconv.FormatUint(uint64(v[0]), 10) + "," + strconv.FormatUint(uint64(v[1]), 10) + "},")
		b.Write(item)
	}
	b.WriteByte('}')
	b.Write(sep)
	return b, nil
}
