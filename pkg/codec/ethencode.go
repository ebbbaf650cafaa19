package codec

import (
	"fmt"
	"math/big"
	"reflect"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// EncodeEthValue is the inverse of DecodeEthLog: it ABI-encodes a decoded
// tuple Value back into Solidity-style bytes, for the T→E direction's
// "event_data=tokens" step (spec section 4.6 step 2). The mapping table
// (spec section 4.3) is symmetric, so this walks the same Type tree
// DecodeEthLog produced, the reverse way.
func EncodeEthValue(v Value) ([]byte, error) {
	if v.Type.Kind != KindTuple {
		return nil, fmt.Errorf("%w: EncodeEthValue requires a tuple value", relayerr.ErrShapeMismatch)
	}
	args, err := toEthArguments(v.Type.Fields)
	if err != nil {
		return nil, err
	}
	if len(v.Elems) != len(v.Type.Fields) {
		return nil, fmt.Errorf("%w: tuple has %d fields, got %d elements", relayerr.ErrShapeMismatch, len(v.Type.Fields), len(v.Elems))
	}
	values := make([]interface{}, len(v.Elems))
	for i, f := range v.Type.Fields {
		val, err := toEthValue(f, v.Elems[i], args[i].Type)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		values[i] = val
	}
	return args.Pack(values...)
}

// toEthValue builds the concrete Go value go-ethereum's Pack expects for
// et, matching the reflect.Type et.GetType() describes.
func toEthValue(t Type, v Value, et ethabi.Type) (interface{}, error) {
	rv := reflect.New(et.GetType()).Elem()
	if err := assignEthValue(rv, t, v); err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func assignEthValue(rv reflect.Value, t Type, v Value) error {
	switch t.Kind {
	case KindUint, KindInt:
		n := v.Int
		if n == nil {
			n = new(big.Int)
		}
		switch rv.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			rv.SetUint(n.Uint64())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			rv.SetInt(n.Int64())
		case reflect.Ptr:
			rv.Set(reflect.ValueOf(new(big.Int).Set(n)))
		default:
			return fmt.Errorf("%w: unexpected go type %s for %s", relayerr.ErrUnsupportedType, rv.Type(), t.String())
		}
		return nil
	case KindBool:
		rv.SetBool(v.Bool)
		return nil
	case KindAddress:
		if len(v.Bytes) != 20 {
			return fmt.Errorf("%w: address must be 20 bytes, got %d", relayerr.ErrShapeMismatch, len(v.Bytes))
		}
		var addr common.Address
		copy(addr[:], v.Bytes)
		rv.Set(reflect.ValueOf(addr))
		return nil
	case KindString:
		rv.SetString(string(v.Bytes))
		return nil
	case KindBytes:
		rv.Set(reflect.ValueOf(append([]byte(nil), v.Bytes...)))
		return nil
	case KindFixedBytes:
		if len(v.Bytes) != t.FixedLen {
			return fmt.Errorf("%w: fixedBytes%d got %d bytes", relayerr.ErrShapeMismatch, t.FixedLen, len(v.Bytes))
		}
		reflect.Copy(rv, reflect.ValueOf(v.Bytes))
		return nil
	case KindArray:
		slice := reflect.MakeSlice(rv.Type(), len(v.Elems), len(v.Elems))
		for i, e := range v.Elems {
			if err := assignEthValue(slice.Index(i), *t.Elem, e); err != nil {
				return err
			}
		}
		rv.Set(slice)
		return nil
	case KindFixedArray:
		if len(v.Elems) != t.FixedLen {
			return fmt.Errorf("%w: fixedArray[%d] got %d elements", relayerr.ErrShapeMismatch, t.FixedLen, len(v.Elems))
		}
		for i, e := range v.Elems {
			if err := assignEthValue(rv.Index(i), *t.Elem, e); err != nil {
				return err
			}
		}
		return nil
	case KindTuple:
		if len(v.Elems) != len(t.Fields) {
			return fmt.Errorf("%w: tuple has %d fields, got %d elements", relayerr.ErrShapeMismatch, len(t.Fields), len(v.Elems))
		}
		for i, f := range t.Fields {
			if err := assignEthValue(rv.Field(i), f, v.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %d", relayerr.ErrUnsupportedType, t.Kind)
	}
}
