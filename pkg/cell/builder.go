package cell

import "fmt"

// Builder accumulates bits and child-cell references before being sealed
// into an immutable Cell with Build.
type Builder struct {
	bits *bitString
	refs []*Cell
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{bits: newBitString(MaxBits)}
}

func (bld *Builder) checkBits(n int) error {
	if bld.bits.len+n > MaxBits {
		return fmt.Errorf("cell: builder overflow, %d+%d > %d max bits", bld.bits.len, n, MaxBits)
	}
	return nil
}

// StoreBool appends a single bit.
func (bld *Builder) StoreBool(v bool) error {
	if err := bld.checkBits(1); err != nil {
		return err
	}
	if v {
		bld.bits.appendBits(1, 1)
	} else {
		bld.bits.appendBits(0, 1)
	}
	return nil
}

// StoreUint appends the low bitLen bits of v, MSB first. bitLen must be in [1,64].
func (bld *Builder) StoreUint(v uint64, bitLen int) error {
	if bitLen <= 0 || bitLen > 64 {
		return fmt.Errorf("cell: StoreUint bitLen %d out of range", bitLen)
	}
	if err := bld.checkBits(bitLen); err != nil {
		return err
	}
	bld.bits.appendBits(v, bitLen)
	return nil
}

// StoreInt appends a two's-complement, sign-extended integer in bitLen bits.
func (bld *Builder) StoreInt(v int64, bitLen int) error {
	if bitLen <= 0 || bitLen > 64 {
		return fmt.Errorf("cell: StoreInt bitLen %d out of range", bitLen)
	}
	if err := bld.checkBits(bitLen); err != nil {
		return err
	}
	mask := uint64(1)<<uint(bitLen) - 1
	bld.bits.appendBits(uint64(v)&mask, bitLen)
	return nil
}

// StoreBytes appends raw bytes with no length prefix.
func (bld *Builder) StoreBytes(data []byte) error {
	if err := bld.checkBits(len(data) * 8); err != nil {
		return err
	}
	bld.bits.appendBytes(data)
	return nil
}

// StoreRef appends a child-cell reference. At most MaxRefs may be stored.
func (bld *Builder) StoreRef(c *Cell) error {
	if len(bld.refs) >= MaxRefs {
		return fmt.Errorf("cell: builder already has %d refs, max %d", len(bld.refs), MaxRefs)
	}
	bld.refs = append(bld.refs, c)
	return nil
}

// RemainingBits reports how many more data bits the builder can hold.
func (bld *Builder) RemainingBits() int {
	return MaxBits - bld.bits.len
}

// RemainingRefs reports how many more child refs the builder can hold.
func (bld *Builder) RemainingRefs() int {
	return MaxRefs - len(bld.refs)
}

// Build seals the builder into an immutable Cell.
func (bld *Builder) Build() (*Cell, error) {
	return &Cell{bits: bld.bits.clone(), refs: append([]*Cell(nil), bld.refs...)}, nil
}

// StoreBytesSnake stores an arbitrarily long byte slice using the standard
// "snake" chaining format: as many bytes as fit in the current cell, then a
// single ref to a continuation cell holding the rest. Used for dynamic
// bytes/string values and for tuples/arrays whose packed form exceeds a
// single cell's capacity.
func StoreBytesSnake(bld *Builder, data []byte) error {
	maxBytes := bld.RemainingBits() / 8
	if bld.RemainingRefs() == 0 {
		maxBytes = bld.RemainingBits() / 8
		if len(data) > maxBytes {
			return fmt.Errorf("cell: snake overflow with no refs left, need %d bytes, have %d bits and no continuation ref", len(data), bld.RemainingBits())
		}
	}
	if len(data) <= maxBytes {
		return bld.StoreBytes(data)
	}
	head := data[:maxBytes]
	tail := data[maxBytes:]
	if err := bld.StoreBytes(head); err != nil {
		return err
	}
	contBuilder := NewBuilder()
	if err := StoreBytesSnake(contBuilder, tail); err != nil {
		return err
	}
	contCell, err := contBuilder.Build()
	if err != nil {
		return err
	}
	return bld.StoreRef(contCell)
}
