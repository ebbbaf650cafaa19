// Package codec translates between E-ABI (Solidity event ABI) values and
// T-ABI value trees, and packs/unpacks those trees into cells. See spec
// section 4.3. Per the design notes, both ABI sides share one closed sum
// type (Type/Value) rather than open polymorphism, since the recursive walk
// over value trees is the hottest path in the relay.
package codec

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of ABI value shapes this codec understands.
type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindBool
	KindAddress
	KindString
	KindBytes
	KindFixedBytes
	KindArray
	KindFixedArray
	KindTuple
)

// Type describes one ABI type on either side of the bridge.
type Type struct {
	Kind     Kind
	Bits     int    // uint<N>/int<N>: N
	FixedLen int    // fixedBytes<N>/fixedArray<T,N>: N
	Elem     *Type  // array/fixedArray element type
	Fields   []Type // tuple member types, in order
}

// Value is a decoded ABI value, tagged by the Type that produced it.
type Value struct {
	Type  Type
	Int   *big.Int // Uint/Int
	Bool  bool
	Bytes []byte  // Address/String(utf8)/Bytes/FixedBytes
	Elems []Value // Array/FixedArray/Tuple
}

// jsonParam mirrors one "inputs[]" entry of a Solidity-style event ABI JSON
// fragment, the format spec section 4.4/4.6 call "event_abi".
type jsonParam struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Components []jsonParam `json:"components,omitempty"`
}

// EventABI is the parsed form of one configuration's event_abi field.
type EventABI struct {
	Name   string
	Inputs []Type
	// EventID is the explicit numeric event id, if the JSON carried one
	// (T→E configurations only; see spec section 4.6 step 1).
	EventID    *uint32
	inputNames []string
}

type jsonEventABI struct {
	Name    string      `json:"name"`
	Inputs  []jsonParam `json:"inputs"`
	EventID *uint32     `json:"event_id,omitempty"`
}

// ParseEventABI parses the event_abi JSON carried by an EventConfiguration.
func ParseEventABI(raw []byte) (*EventABI, error) {
	var j jsonEventABI
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("codec: parse event_abi: %w", err)
	}
	inputs := make([]Type, len(j.Inputs))
	names := make([]string, len(j.Inputs))
	for i, p := range j.Inputs {
		t, err := parseParam(p)
		if err != nil {
			return nil, fmt.Errorf("codec: input %d (%s): %w", i, p.Name, err)
		}
		inputs[i] = t
		names[i] = p.Name
	}
	return &EventABI{Name: j.Name, Inputs: inputs, EventID: j.EventID, inputNames: names}, nil
}

func parseParam(p jsonParam) (Type, error) {
	typeStr := p.Type
	if idx := strings.IndexByte(typeStr, '['); idx >= 0 {
		base := typeStr[:idx]
		suffix := typeStr[idx:]
		elemParam := jsonParam{Name: p.Name, Type: base, Components: p.Components}
		elem, err := parseParam(elemParam)
		if err != nil {
			return Type{}, err
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(suffix, "["), "]")
		if inner == "" {
			return Type{Kind: KindArray, Elem: &elem}, nil
		}
		n, err := strconv.Atoi(inner)
		if err != nil {
			return Type{}, fmt.Errorf("bad fixed array length %q: %w", inner, err)
		}
		return Type{Kind: KindFixedArray, Elem: &elem, FixedLen: n}, nil
	}

	switch {
	case typeStr == "bool":
		return Type{Kind: KindBool}, nil
	case typeStr == "address":
		return Type{Kind: KindAddress}, nil
	case typeStr == "string":
		return Type{Kind: KindString}, nil
	case typeStr == "bytes":
		return Type{Kind: KindBytes}, nil
	case strings.HasPrefix(typeStr, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(typeStr, "bytes"))
		if err != nil {
			return Type{}, fmt.Errorf("bad fixed bytes type %q: %w", typeStr, err)
		}
		if n < 1 || n > 32 {
			return Type{}, fmt.Errorf("fixed bytes length %d out of range [1,32]", n)
		}
		return Type{Kind: KindFixedBytes, FixedLen: n}, nil
	case strings.HasPrefix(typeStr, "uint"):
		bits, err := parseBitWidth(strings.TrimPrefix(typeStr, "uint"))
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindUint, Bits: bits}, nil
	case strings.HasPrefix(typeStr, "int"):
		bits, err := parseBitWidth(strings.TrimPrefix(typeStr, "int"))
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	case typeStr == "tuple":
		fields := make([]Type, len(p.Components))
		for i, c := range p.Components {
			ft, err := parseParam(c)
			if err != nil {
				return Type{}, fmt.Errorf("tuple field %d (%s): %w", i, c.Name, err)
			}
			fields[i] = ft
		}
		return Type{Kind: KindTuple, Fields: fields}, nil
	default:
		return Type{}, fmt.Errorf("unsupported ABI type %q", typeStr)
	}
}

func parseBitWidth(s string) (int, error) {
	if s == "" {
		return 256, nil // solidity shorthand "uint"/"int" == 256 bits
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad integer width %q: %w", s, err)
	}
	if n < 8 || n > 256 || n%8 != 0 {
		return 0, fmt.Errorf("integer width %d must be a multiple of 8 in [8,256]", n)
	}
	return n, nil
}

// Signature renders the canonical "name(type1,type2,...)" form used for
// event topic hashing (spec section 4.3/4.5, testable property 6). Tuple
// field names are never part of the signature, matching Solidity.
func (e *EventABI) Signature() string {
	parts := make([]string, len(e.Inputs))
	for i, t := range e.Inputs {
		parts[i] = t.String()
	}
	return e.Name + "(" + strings.Join(parts, ",") + ")"
}

// String renders a Type back into its Solidity-style type string.
func (t Type) String() string {
	switch t.Kind {
	case KindUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KindInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KindBool:
		return "bool"
	case KindAddress:
		return "address"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return fmt.Sprintf("bytes%d", t.FixedLen)
	case KindArray:
		return t.Elem.String() + "[]"
	case KindFixedArray:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.FixedLen)
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return "?"
	}
}
