package casewatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/autom8ter/casewatch/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Kind is the shape of a snapshot value
type Kind int

const (
	// KindAbsent indicates the value does not exist (as opposed to an explicit null)
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	// KindMap is an unordered set of field names mapped to values
	KindMap
	// KindSeq is an ordered sequence of values
	KindSeq
)

var kindNames = map[Kind]string{
	KindAbsent: "absent",
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindMap:    "map",
	KindSeq:    "seq",
}

// String returns the name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an immutable snapshot value: absent, a scalar, a map of field name -> value, or a sequence of values.
// The zero Value is absent.
type Value struct {
	kind   Kind
	scalar any
	fields map[string]Value
	elems  []Value
}

// Absent returns the absent value
func Absent() Value { return Value{} }

// Null returns an explicit null
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean scalar
func Bool(b bool) Value { return Value{kind: KindBool, scalar: b} }

// Number returns a numeric scalar
func Number(f float64) Value { return Value{kind: KindNumber, scalar: f} }

// String returns a string scalar
func String(s string) Value { return Value{kind: KindString, scalar: s} }

// Map returns a mapping value. A nil map is an empty (present) mapping. Absent field values are dropped.
func Map(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		if v.IsAbsent() {
			continue
		}
		cp[k] = v
	}
	return Value{kind: KindMap, fields: cp}
}

// Seq returns a sequence value
func Seq(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindSeq, elems: cp}
}

// FromAny converts a decoded json-like go value into a Value.
// nil becomes an explicit null - use Absent() for a missing value.
func FromAny(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, errors.Wrap(err, errors.Validation, "invalid number: %s", v.String())
		}
		return Number(f), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return Number(cast.ToFloat64(v)), nil
	case time.Time:
		return String(v.UTC().Format(time.RFC3339Nano)), nil
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for key, val := range v {
			converted, err := FromAny(val)
			if err != nil {
				return Value{}, errors.Wrap(err, 0, "field %s", key)
			}
			fields[key] = converted
		}
		return Value{kind: KindMap, fields: fields}, nil
	case []any:
		elems := make([]Value, len(v))
		for i, val := range v {
			converted, err := FromAny(val)
			if err != nil {
				return Value{}, errors.Wrap(err, 0, "index %d", i)
			}
			elems[i] = converted
		}
		return Value{kind: KindSeq, elems: elems}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromAny(m)
	case reflect.Slice, reflect.Array:
		s := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s[i] = rv.Index(i).Interface()
		}
		return FromAny(s)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromAny(rv.Elem().Interface())
	}
	return Value{}, errors.New(errors.Validation, "unsupported snapshot value type: %T", v)
}

// MustFromAny is like FromAny but panics on unsupported input. It's meant for fixtures & tests.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Kind returns the shape of the value
func (v Value) Kind() Kind { return v.kind }

// IsAbsent returns true if the value does not exist
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsMap returns true if the value is a mapping
func (v Value) IsMap() bool { return v.kind == KindMap }

// IsSeq returns true if the value is a sequence
func (v Value) IsSeq() bool { return v.kind == KindSeq }

// IsScalar returns true if the value is a present, non-container value
func (v Value) IsScalar() bool {
	return v.kind != KindAbsent && v.kind != KindMap && v.kind != KindSeq
}

// Get returns the value of a field on a mapping. Non-mappings and missing fields return Absent.
func (v Value) Get(field string) Value {
	if v.kind != KindMap {
		return Absent()
	}
	return v.fields[field]
}

// Index returns the element at position i of a sequence. Out of range & non-sequences return Absent.
func (v Value) Index(i int) Value {
	if v.kind != KindSeq || i < 0 || i >= len(v.elems) {
		return Absent()
	}
	return v.elems[i]
}

// Len returns the number of fields of a mapping or the number of elements of a sequence
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.fields)
	case KindSeq:
		return len(v.elems)
	}
	return 0
}

// Keys returns the sorted field names of a mapping
func (v Value) Keys() []string {
	keys := lo.Keys(v.fields)
	sort.Strings(keys)
	return keys
}

// Elements returns a copy of the elements of a sequence
func (v Value) Elements() []Value {
	cp := make([]Value, len(v.elems))
	copy(cp, v.elems)
	return cp
}

// Interface converts the value back into a go value (absent & null are both nil)
func (v Value) Interface() any {
	switch v.kind {
	case KindAbsent, KindNull:
		return nil
	case KindMap:
		m := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			m[k] = f.Interface()
		}
		return m
	case KindSeq:
		s := make([]any, len(v.elems))
		for i, e := range v.elems {
			s[i] = e.Interface()
		}
		return s
	}
	return v.scalar
}

// String renders the value as json
func (v Value) String() string {
	bits, _ := v.MarshalJSON()
	return string(bits)
}

// MarshalJSON renders the value as json. Absent values render as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes json into the value
func (v *Value) UnmarshalJSON(bits []byte) error {
	var data any
	if err := json.Unmarshal(bits, &data); err != nil {
		return errors.Wrap(err, errors.Validation, "invalid json")
	}
	val, err := FromAny(data)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Equal reports deep structural equality: scalars by value, sequences by length and pairwise elements,
// mappings by key set and per-key values. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindAbsent, KindNull:
		return true
	case KindSeq:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return a.scalar == b.scalar
}
