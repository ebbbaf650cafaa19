package cell

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Serialize flattens a cell tree into a self-describing byte sequence:
// [bitLen:2][data bytes][refCount:1][serialize(ref) for each ref]. This is
// an internal encoding for hashing and transport-body framing, not the
// canonical TON bag-of-cells format (BOC serialization is a transport
// concern out of scope here).
func Serialize(c *Cell) []byte {
	out := make([]byte, 0, 2+len(c.bits.buf)+1)
	var bitLen [2]byte
	binary.BigEndian.PutUint16(bitLen[:], uint16(c.bits.len))
	out = append(out, bitLen[:]...)
	out = append(out, c.bits.buf...)
	out = append(out, byte(len(c.refs)))
	for _, r := range c.refs {
		out = append(out, Serialize(r)...)
	}
	return out
}

// Hash returns the sha256 of a cell's serialized form, used as a stable
// content identity for a cell (e.g. the transaction hash a TonEventVoteData
// is keyed by).
func Hash(c *Cell) [32]byte {
	return sha256.Sum256(Serialize(c))
}

// Deserialize is the inverse of Serialize: it parses a cell tree back out
// of the exact framing Serialize writes. raw must contain exactly one
// cell's worth of bytes; any leftover is an error, matching UnpackCell's
// "leftover input" strictness one layer up.
func Deserialize(raw []byte) (*Cell, error) {
	c, rest, err := deserializeOne(raw)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("cell: %d leftover bytes after deserialize", len(rest))
	}
	return c, nil
}

func deserializeOne(raw []byte) (*Cell, []byte, error) {
	if len(raw) < 2 {
		return nil, nil, fmt.Errorf("cell: truncated header")
	}
	bitLen := int(binary.BigEndian.Uint16(raw[:2]))
	raw = raw[2:]

	nBytes := (bitLen + 7) / 8
	if len(raw) < nBytes+1 {
		return nil, nil, fmt.Errorf("cell: truncated body")
	}
	data := append([]byte(nil), raw[:nBytes]...)
	raw = raw[nBytes:]

	refCount := int(raw[0])
	raw = raw[1:]

	refs := make([]*Cell, refCount)
	for i := 0; i < refCount; i++ {
		r, rest, err := deserializeOne(raw)
		if err != nil {
			return nil, nil, err
		}
		refs[i] = r
		raw = rest
	}

	return &Cell{bits: &bitString{buf: data, len: bitLen}, refs: refs}, raw, nil
}
