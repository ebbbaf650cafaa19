package codec

import (
	"fmt"
	"math/big"
	"reflect"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// toEthArguments rebuilds a go-ethereum abi.Arguments from our Type tree so
// that the battle-tested go-ethereum unpacker does the actual Solidity
// decoding; this codec only owns the Type/Value tree shape and the
// T-side packing, not a second implementation of Solidity ABI decoding.
func toEthArguments(inputs []Type) (ethabi.Arguments, error) {
	args := make(ethabi.Arguments, len(inputs))
	for i, t := range inputs {
		et, err := toEthType(t)
		if err != nil {
			return nil, err
		}
		args[i] = ethabi.Argument{Name: fmt.Sprintf("arg%d", i), Type: et}
	}
	return args, nil
}

func toEthType(t Type) (ethabi.Type, error) {
	switch t.Kind {
	case KindUint:
		return ethabi.NewType(fmt.Sprintf("uint%d", t.Bits), "", nil)
	case KindInt:
		return ethabi.NewType(fmt.Sprintf("int%d", t.Bits), "", nil)
	case KindBool:
		return ethabi.NewType("bool", "", nil)
	case KindAddress:
		return ethabi.NewType("address", "", nil)
	case KindString:
		return ethabi.NewType("string", "", nil)
	case KindBytes:
		return ethabi.NewType("bytes", "", nil)
	case KindFixedBytes:
		return ethabi.NewType(fmt.Sprintf("bytes%d", t.FixedLen), "", nil)
	case KindArray:
		return ethabi.NewType(t.Elem.String()+"[]", "", nil)
	case KindFixedArray:
		return ethabi.NewType(fmt.Sprintf("%s[%d]", t.Elem.String(), t.FixedLen), "", nil)
	case KindTuple:
		components := make([]ethabi.ArgumentMarshaling, len(t.Fields))
		for i, f := range t.Fields {
			components[i] = ethabi.ArgumentMarshaling{Name: fmt.Sprintf("f%d", i), Type: f.String()}
			if f.Kind == KindTuple {
				sub, err := tupleComponents(f)
				if err != nil {
					return ethabi.Type{}, err
				}
				components[i].Components = sub
			}
		}
		return ethabi.NewType("tuple", "", components)
	default:
		return ethabi.Type{}, fmt.Errorf("%w: kind %d", relayerr.ErrUnsupportedType, t.Kind)
	}
}

func tupleComponents(t Type) ([]ethabi.ArgumentMarshaling, error) {
	components := make([]ethabi.ArgumentMarshaling, len(t.Fields))
	for i, f := range t.Fields {
		components[i] = ethabi.ArgumentMarshaling{Name: fmt.Sprintf("f%d", i), Type: f.String()}
		if f.Kind == KindTuple {
			sub, err := tupleComponents(f)
			if err != nil {
				return nil, err
			}
			components[i].Components = sub
		}
	}
	return components, nil
}

// DecodeEthLog decodes a log's non-indexed data per the configuration's
// event ABI and returns the tuple of input values as a Value tree (spec
// section 4.5 step 3).
func DecodeEthLog(eventABI *EventABI, data []byte) (Value, error) {
	args, err := toEthArguments(eventABI.Inputs)
	if err != nil {
		return Value{}, err
	}
	raw, err := args.Unpack(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", relayerr.ErrShapeMismatch, err)
	}
	elems := make([]Value, len(eventABI.Inputs))
	for i, t := range eventABI.Inputs {
		v, err := fromReflect(t, reflect.ValueOf(raw[i]))
		if err != nil {
			return Value{}, fmt.Errorf("input %d: %w", i, err)
		}
		elems[i] = v
	}
	return Value{Type: Type{Kind: KindTuple, Fields: eventABI.Inputs}, Elems: elems}, nil
}

// fromReflect converts one go-ethereum-unpacked Go value into our Value
// tree, per the Solidity-Go type mapping documented in
// github.com/ethereum/go-ethereum/accounts/abi (unpack.go/reflect.go).
func fromReflect(t Type, rv reflect.Value) (Value, error) {
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch t.Kind {
	case KindUint, KindInt:
		return Value{Type: t, Int: toBigInt(rv)}, nil
	case KindBool:
		return Value{Type: t, Bool: rv.Bool()}, nil
	case KindAddress:
		addr := rv.Interface().(common.Address)
		b := make([]byte, 20)
		copy(b, addr[:])
		return Value{Type: t, Bytes: b}, nil
	case KindString:
		return Value{Type: t, Bytes: []byte(rv.String())}, nil
	case KindBytes:
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return Value{Type: t, Bytes: b}, nil
	case KindFixedBytes:
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return Value{Type: t, Bytes: b}, nil
	case KindArray, KindFixedArray:
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := fromReflect(*t.Elem, rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{Type: t, Elems: elems}, nil
	case KindTuple:
		elems := make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			fv := rv.Field(i)
			v, err := fromReflect(f, fv)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{Type: t, Elems: elems}, nil
	default:
		return Value{}, fmt.Errorf("%w: kind %d", relayerr.ErrUnsupportedType, t.Kind)
	}
}

func toBigInt(rv reflect.Value) *big.Int {
	if b, ok := rv.Interface().(*big.Int); ok {
		return new(big.Int).Set(b)
	}
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return new(big.Int).SetUint64(rv.Uint())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return big.NewInt(rv.Int())
	default:
		return new(big.Int)
	}
}
