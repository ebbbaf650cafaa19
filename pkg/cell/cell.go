// Package cell implements the T-chain's fundamental serialization unit: a
// tree of up to 1023 bits plus up to 4 child references (glossary: Cell).
//
// It is a small, self-contained bit/ref tree used by pkg/codec to pack and
// unpack translated event payloads. It does not implement a full bag-of-cells
// wire format (canonical representation hashing, deduplication, BOC
// serialization) — only what the wire codec needs to round-trip values, plus
// a sha256 Hash over this package's own serialization.
package cell

import "fmt"

const (
	// MaxBits is the maximum number of data bits a single cell may hold.
	MaxBits = 1023
	// MaxRefs is the maximum number of child cells a single cell may reference.
	MaxRefs = 4
)

// Cell is an immutable bit string plus up to MaxRefs child cells.
type Cell struct {
	bits *bitString
	refs []*Cell
}

// BitLen returns the number of data bits stored in the cell.
func (c *Cell) BitLen() int {
	if c == nil || c.bits == nil {
		return 0
	}
	return c.bits.len
}

// RefsLen returns the number of child cells.
func (c *Cell) RefsLen() int {
	if c == nil {
		return 0
	}
	return len(c.refs)
}

// Ref returns the i-th child cell.
func (c *Cell) Ref(i int) (*Cell, error) {
	if c == nil || i < 0 || i >= len(c.refs) {
		return nil, fmt.Errorf("cell: ref index %d out of range", i)
	}
	return c.refs[i], nil
}

// BeginParse returns a Slice positioned at the start of the cell for reading.
func (c *Cell) BeginParse() *Slice {
	s := &Slice{refs: append([]*Cell(nil), c.refs...)}
	if c != nil && c.bits != nil {
		s.bits = c.bits.clone()
	} else {
		s.bits = newBitString(0)
	}
	return s
}
