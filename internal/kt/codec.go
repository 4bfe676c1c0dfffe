package kt

import "math/bits"

// Codec encodes and decodes single bytes against a 64-bit automaton state
// using a fixed pair of transition tables. A Codec is immutable once built
// and safe for concurrent use by multiple independent states.
type Codec struct {
	tables *Tables
}

// NewCodec builds a Codec whose tables are derived from seed.
func NewCodec(seed uint64) *Codec {
	return &Codec{tables: Build(seed)}
}

// State is the 64-bit automaton register. The zero value is the initial
// state for both encoding and decoding.
type State = uint64

// Encode emits one coded byte for plain under state, returning the emitted
// byte and the state after emission.
//
//	t        := state XOR FWD[plain]
//	emitted  := low_byte(t)
//	newState := rotate_right(t, 8)
func (c *Codec) Encode(plain byte, state State) (emitted byte, newState State) {
	t := state ^ c.tables.FWD[plain]
	emitted = byte(t)
	newState = bits.RotateLeft64(t, -BlockSize)
	return
}

// Decode inverts Encode: given the emitted byte and the state *before*
// emission, it recovers the original plain byte and the state after
// emission (identical to the state Encode would have produced).
//
//	idx      := (emitted XOR low_byte(state)) AND 0xFF
//	plain    := REV[idx]
//	t        := state XOR FWD[plain]
//	newState := rotate_right(t, 8)
func (c *Codec) Decode(emitted byte, state State) (plain byte, newState State) {
	idx := (uint64(emitted) ^ state) & Mask
	plain = c.tables.REV[idx]
	t := state ^ c.tables.FWD[plain]
	newState = bits.RotateLeft64(t, -BlockSize)
	return
}
