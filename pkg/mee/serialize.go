package mee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Nith567/okx-dex-mcp/pkg/types"
)

// marshalValue renders one instruction argument for the wire. Wide integers
// become decimal strings and byte blobs become hex strings; floats are
// rejected because they cannot cross the boundary losslessly. Decoded ABI
// tuples arrive as anonymous structs and are rendered recursively.
func marshalValue(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case *big.Int:
		if val == nil {
			return json.RawMessage("null"), nil
		}
		return json.Marshal(val.String())
	case big.Int:
		return json.Marshal(val.String())
	case common.Address:
		return json.Marshal(val.Hex())
	case Amount:
		return val.MarshalJSON()
	case []byte:
		return json.Marshal(hexutil.Encode(val))
	case bool, string:
		return json.Marshal(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return json.Marshal(val)
	case float32, float64:
		return nil, &types.SerializationError{
			Value:  fmt.Sprintf("%v", val),
			Reason: "floating-point values are not decimal-safe",
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return json.RawMessage("null"), nil
		}
		return marshalValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		// Fixed-size byte arrays (bytes32 and friends) render as hex.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return json.Marshal(hexutil.Encode(b))
		}
		parts := make([]json.RawMessage, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			part, err := marshalValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
		return json.Marshal(parts)
	case reflect.Struct:
		out := make(map[string]json.RawMessage, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field, err := marshalValue(rv.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			out[lowerCamel(rv.Type().Field(i).Name)] = field
		}
		return json.Marshal(out)
	}

	return nil, &types.SerializationError{
		Value:  fmt.Sprintf("%v", v),
		Reason: fmt.Sprintf("unsupported argument type %T", v),
	}
}

func lowerCamel(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// maxSafeDigits is the longest integer literal that survives a float64-based
// JSON parser unharmed (2^53-1 has 16 digits).
const maxSafeDigits = 15

// NormalizeNumbers rewrites a JSON document so every integer too wide for a
// float64 becomes a decimal string. Receipts pass through this before they
// are handed to any caller, so re-parsing with a generic decoder never loses
// precision.
func NormalizeNumbers(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("normalize receipt: %w", err)
	}

	out, err := json.Marshal(normalizeValue(doc))
	if err != nil {
		return nil, fmt.Errorf("normalize receipt: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeValue(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = normalizeValue(elem)
		}
		return val
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return val
		}
		if len(strings.TrimPrefix(s, "-")) > maxSafeDigits {
			return s
		}
		return val
	default:
		return v
	}
}
