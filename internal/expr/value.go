package expr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Expr is a sealed interface over the expression value kinds.
type Expr interface {
	expr() // Sealed - only the kinds below implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) expr() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) expr() {}

// Number is a numeric literal. Points may be fractional (halved credit),
// so numbers are float64 throughout.
type Number float64

func (Number) expr() {}

// String is a string value. Strings are not literals: they only appear as
// operator payloads (goal ids, problem ids, plugin arguments).
type String string

func (String) expr() {}

// List is an ordered sequence of expressions.
type List []Expr

func (List) expr() {}

// Object maps keys to expressions. Use SortedKeys for deterministic
// iteration.
type Object map[string]Expr

func (Object) expr() {}

// Kind returns a short name for the value kind, used in error messages.
func Kind(e Expr) string {
	switch e.(type) {
	case nil:
		return "nil"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Object:
		if name, _, ok := Operator(e); ok {
			return "operator " + strconv.Quote(name)
		}
		return "object"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// Operator reports whether e is an operator node: an object with exactly
// one key. It returns the operator name and its payload.
func Operator(e Expr) (name string, payload Expr, ok bool) {
	obj, isObj := e.(Object)
	if !isObj || len(obj) != 1 {
		return "", nil, false
	}
	for k, v := range obj {
		return k, v, true
	}
	return "", nil, false
}

// IsOperator reports whether e is an operator node named name.
func IsOperator(e Expr, name string) bool {
	n, _, ok := Operator(e)
	return ok && n == name
}

// Truthy reports whether e counts as true: Bool(true) or a non-zero Number.
func Truthy(e Expr) bool {
	switch v := e.(type) {
	case Bool:
		return bool(v)
	case Number:
		return v != 0
	default:
		return false
	}
}

// Equal reports structural equality of two expressions.
func Equal(a, b Expr) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, found := bv[k]
			if !found || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's native string order is UTF-8 bytes, which differs outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Parse decodes a single JSON document into an expression.
// Numbers are read through json.Number so integers keep their exact value.
func Parse(data []byte) (Expr, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse expression: trailing data after JSON value")
	}
	return FromAny(raw)
}

// FromAny converts decoded Go values (encoding/json, yaml.v3) into an
// expression.
func FromAny(v any) (Expr, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Expr:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", val, err)
		}
		return Number(f), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("number %v is not finite", val)
		}
		return Number(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			e, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = e
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts an expression back into plain Go values
// (bool, float64, string, []any, map[string]any, nil).
func ToAny(e Expr) any {
	switch val := e.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (obj *Object) UnmarshalJSON(data []byte) error {
	e, err := Parse(data)
	if err != nil {
		return err
	}
	o, ok := e.(Object)
	if !ok {
		return fmt.Errorf("expected object, got %s", Kind(e))
	}
	*obj = o
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (list *List) UnmarshalJSON(data []byte) error {
	e, err := Parse(data)
	if err != nil {
		return err
	}
	l, ok := e.(List)
	if !ok {
		return fmt.Errorf("expected list, got %s", Kind(e))
	}
	*list = l
	return nil
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
func (obj Object) MarshalJSON() ([]byte, error) {
	return Marshal(obj)
}

// MarshalJSON implements json.Marshaler for List.
func (list List) MarshalJSON() ([]byte, error) {
	return Marshal(list)
}

// Marshal encodes an expression as JSON with sorted object keys.
// Unlike MarshalCanonical it accepts Null and does not normalise strings.
func Marshal(e Expr) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalTo(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalTo(buf *bytes.Buffer, e Expr) error {
	switch val := e.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Number:
		s, err := formatNumber(float64(val))
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case String:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalTo(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := marshalTo(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown expression type: %T", e)
	}
	return nil
}

// formatNumber renders whole numbers without a fraction or exponent.
func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("number %v is not finite", f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// Format renders an expression as compact JSON for logs and messages.
func Format(e Expr) string {
	b, err := Marshal(e)
	if err != nil {
		return fmt.Sprintf("<%s>", Kind(e))
	}
	return string(b)
}
