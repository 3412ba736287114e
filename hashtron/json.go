package hashtron

import "encoding/json"
import "errors"

type hashtronJSON struct {
	Bits    byte        `json:"bits"`
	Program [][2]uint32 `json:"program"`
}

// MarshalJSON serializes the hashtron program and output width.
func (h Hashtron) MarshalJSON() ([]byte, error) {
	program := h.program
	if program == nil {
		program = [][2]uint32{}
	}
	return json.Marshal(hashtronJSON{Bits: h.Bits(), Program: program})
}

// UnmarshalJSON loads a hashtron written by MarshalJSON.
func (h *Hashtron) UnmarshalJSON(data []byte) error {
	var v hashtronJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	for _, cmd := range v.Program {
		if cmd[1] == 0 {
			return errors.New("hashtron: zero modulo in program")
		}
	}
	if v.Bits == 0 {
		v.Bits = 1
	}
	h.bits = v.Bits
	h.program = v.Program
	return nil
}
