package codec

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/tonbridge/relay/pkg/cell"
	"github.com/tonbridge/relay/pkg/relayerr"
)

// intWordBits is the fixed width ints are sign-extended to when packed into
// a cell, per the mapping table's note: "sign-extend to 32 bytes when
// packing." Uints keep their declared width instead.
const intWordBits = 256

// PackCell packs a decoded Value tree into a cell, per spec section 4.3.
func PackCell(v Value) (*cell.Cell, error) {
	bld := cell.NewBuilder()
	if err := packValue(bld, v); err != nil {
		return nil, err
	}
	return bld.Build()
}

func packValue(bld *cell.Builder, v Value) error {
	switch v.Type.Kind {
	case KindUint:
		return storeUintBits(bld, v.Int, v.Type.Bits)
	case KindInt:
		return storeIntBits(bld, v.Int, intWordBits)
	case KindBool:
		return bld.StoreBool(v.Bool)
	case KindAddress:
		if len(v.Bytes) != 20 {
			return fmt.Errorf("%w: address must be 20 bytes, got %d", relayerr.ErrShapeMismatch, len(v.Bytes))
		}
		return bld.StoreBytes(v.Bytes)
	case KindFixedBytes:
		if len(v.Bytes) != v.Type.FixedLen {
			return fmt.Errorf("%w: fixedBytes%d got %d bytes", relayerr.ErrShapeMismatch, v.Type.FixedLen, len(v.Bytes))
		}
		return bld.StoreBytes(v.Bytes)
	case KindString, KindBytes:
		if err := bld.StoreUint(uint64(len(v.Bytes)), 32); err != nil {
			return err
		}
		return cell.StoreBytesSnake(bld, v.Bytes)
	case KindFixedArray:
		if len(v.Elems) != v.Type.FixedLen {
			return fmt.Errorf("%w: fixedArray[%d] got %d elements", relayerr.ErrShapeMismatch, v.Type.FixedLen, len(v.Elems))
		}
		return packElems(bld, v.Elems)
	case KindArray:
		if err := bld.StoreUint(uint64(len(v.Elems)), 32); err != nil {
			return err
		}
		return packElems(bld, v.Elems)
	case KindTuple:
		if len(v.Elems) != len(v.Type.Fields) {
			return fmt.Errorf("%w: tuple has %d fields, got %d elements", relayerr.ErrShapeMismatch, len(v.Type.Fields), len(v.Elems))
		}
		return packElems(bld, v.Elems)
	default:
		return fmt.Errorf("%w: kind %d", relayerr.ErrUnsupportedType, v.Type.Kind)
	}
}

// packElems packs each element into its own child cell ref. Packing
// composite values (arrays/tuples) as refs rather than inline keeps any one
// cell's bit usage small and bounded by the element count, not by the
// recursive size of the value — the simplest way to respect the 4-ref,
// 1023-bit ceiling without a bin-packing pass.
func packElems(bld *cell.Builder, elems []Value) error {
	for _, e := range elems {
		ec, err := PackCell(e)
		if err != nil {
			return err
		}
		if bld.RemainingRefs() == 0 {
			return fmt.Errorf("%w: too many composite elements for one cell (max %d refs)", relayerr.ErrShapeMismatch, cell.MaxRefs)
		}
		if err := bld.StoreRef(ec); err != nil {
			return err
		}
	}
	return nil
}

func storeUintBits(bld *cell.Builder, v *big.Int, bits int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: uint%d cannot hold negative value", relayerr.ErrShapeMismatch, bits)
	}
	if v.BitLen() > bits {
		return fmt.Errorf("%w: value does not fit in uint%d", relayerr.ErrShapeMismatch, bits)
	}
	b := padBigEndian(v.Bytes(), bits/8)
	return bld.StoreBytes(b)
}

func storeIntBits(bld *cell.Builder, v *big.Int, bits int) error {
	if v == nil {
		v = new(big.Int)
	}
	twos := toTwosComplement(v, bits)
	b := padBigEndian(twos.Bytes(), bits/8)
	return bld.StoreBytes(b)
}

// UnpackCell reads a Value tree of the given Type back out of a cell. t
// must describe the same shape used to pack the cell (spec section 4.3).
func UnpackCell(t Type, c *cell.Cell) (Value, error) {
	s := c.BeginParse()
	v, err := unpackValue(s, t)
	if err != nil {
		return Value{}, err
	}
	if err := s.EnsureEmpty(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func unpackValue(s *cell.Slice, t Type) (Value, error) {
	switch t.Kind {
	case KindUint:
		b, err := s.LoadBytes(t.Bits / 8)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Int: new(big.Int).SetBytes(b)}, nil
	case KindInt:
		b, err := s.LoadBytes(intWordBits / 8)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Int: fromTwosComplement(b)}, nil
	case KindBool:
		v, err := s.LoadBool()
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Bool: v}, nil
	case KindAddress:
		b, err := s.LoadBytes(20)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Bytes: b}, nil
	case KindFixedBytes:
		b, err := s.LoadBytes(t.FixedLen)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Bytes: b}, nil
	case KindString, KindBytes:
		n, err := s.LoadUint(32)
		if err != nil {
			return Value{}, err
		}
		b, err := cell.LoadBytesSnakeN(s, int(n))
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Bytes: b}, nil
	case KindFixedArray:
		elems, err := unpackElems(s, *t.Elem, t.FixedLen)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Elems: elems}, nil
	case KindArray:
		n, err := s.LoadUint(32)
		if err != nil {
			return Value{}, err
		}
		elems, err := unpackElems(s, *t.Elem, int(n))
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Elems: elems}, nil
	case KindTuple:
		elems, err := unpackFields(s, t.Fields)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Elems: elems}, nil
	default:
		return Value{}, fmt.Errorf("%w: kind %d", relayerr.ErrUnsupportedType, t.Kind)
	}
}

func unpackElems(s *cell.Slice, elemType Type, n int) ([]Value, error) {
	elems := make([]Value, n)
	for i := 0; i < n; i++ {
		ref, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		v, err := UnpackCell(elemType, ref)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return elems, nil
}

func unpackFields(s *cell.Slice, fields []Type) ([]Value, error) {
	elems := make([]Value, len(fields))
	for i, f := range fields {
		ref, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		v, err := UnpackCell(f, ref)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return elems, nil
}

func padBigEndian(b []byte, width int) []byte {
	if len(b) >= width {
		return b[len(b)-width:]
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out
}

func toTwosComplement(v *big.Int, bits int) *big.Int {
	if v.Sign() >= 0 {
		return v
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return new(big.Int).Add(mod, v)
}

func fromTwosComplement(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	bits := len(b) * 8
	signBit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if v.Cmp(signBit) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		v.Sub(v, mod)
	}
	return v
}

// Equal reports whether two Values carry the same data, ignoring Type
// metadata differences that don't affect the encoded payload (used for the
// E->T->E round-trip property, spec section 8 property 5).
func Equal(a, b Value) bool {
	if (a.Int == nil) != (b.Int == nil) {
		return false
	}
	if a.Int != nil && a.Int.Cmp(b.Int) != 0 {
		return false
	}
	if a.Bool != b.Bool {
		return false
	}
	if !bytes.Equal(a.Bytes, b.Bytes) {
		return false
	}
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

// BytesToAddress validates and reinterprets a decoded T-side "bytes" value
// as a 20-byte E-chain address, per the mapping table's "T→E requires
// bytes.len == 20" rule.
func BytesToAddress(v Value) (Value, error) {
	if len(v.Bytes) != 20 {
		return Value{}, fmt.Errorf("%w: expected 20-byte address, got %d bytes", relayerr.ErrShapeMismatch, len(v.Bytes))
	}
	return Value{Type: Type{Kind: KindAddress}, Bytes: v.Bytes}, nil
}
