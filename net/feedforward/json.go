package feedforward

import "compress/lzw"
import "encoding/json"
import "fmt"
import "io"
import "os"

import "github.com/objtrain/objtrain/hashtron"

// Weights returns a copy of every hashtron in network order
func (f FeedforwardNetwork) Weights() []hashtron.Hashtron {
	o := make([]hashtron.Hashtron, 0, f.Len())
	for _, v := range f.layers {
		o = append(o, v...)
	}
	return o
}

// SetWeights overwrites every hashtron, the count must match the architecture
func (f FeedforwardNetwork) SetWeights(w []hashtron.Hashtron) error {
	if len(w) != f.Len() {
		return fmt.Errorf("weights: have %d hashtrons, network needs %d", len(w), f.Len())
	}
	for i := range w {
		*f.GetHashtron(i) = w[i]
	}
	return nil
}

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (f FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = f.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes model weights as a lzw compressed json array
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	if err := json.NewEncoder(lw).Encode(f.Weights()); err != nil {
		lw.Close()
		return err
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (f FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return f.ReadCompressedWeights(file)
}

// ReadCompressedWeights reads model weights written by WriteCompressedWeights
func (f FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()
	var w []hashtron.Hashtron
	if err := json.NewDecoder(lr).Decode(&w); err != nil {
		return err
	}
	return f.SetWeights(w)
}
