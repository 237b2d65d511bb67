package casewatch

import (
	"encoding/json"

	"github.com/autom8ter/casewatch/errors"
	flat2 "github.com/nqd/flat"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is a json document as delivered by a write trigger. It's the native representation
// that gets converted into a Value snapshot before diffing.
type Document struct {
	result gjson.Result
}

// UnmarshalJSON satisfies the json Unmarshaler interface
func (d *Document) UnmarshalJSON(bytes []byte) error {
	doc, err := NewDocumentFromBytes(bytes)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// MarshalJSON satisfies the json Marshaler interface
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.Bytes(), nil
}

// NewDocument creates a new empty json document
func NewDocument() *Document {
	return &Document{
		result: gjson.Parse("{}"),
	}
}

// NewDocumentFromBytes creates a new document from the given json bytes
func NewDocumentFromBytes(json []byte) (*Document, error) {
	if !gjson.ValidBytes(json) {
		return nil, errors.New(errors.Validation, "invalid json: %s", string(json))
	}
	d := &Document{
		result: gjson.ParseBytes(json),
	}
	if !d.Valid() {
		return nil, errors.New(errors.Validation, "invalid document: documents must be json objects")
	}
	return d, nil
}

// NewDocumentFrom creates a new document from the given value - the value must be json compatible
func NewDocumentFrom(value any) (*Document, error) {
	bits, err := json.Marshal(value)
	if err != nil {
		return nil, errors.New(errors.Validation, "failed to json encode value: %#v", value)
	}
	return NewDocumentFromBytes(bits)
}

// Valid returns whether the document is a valid json object
func (d *Document) Valid() bool {
	return gjson.ValidBytes(d.Bytes()) && d.result.IsObject()
}

// String returns the document as a json string
func (d *Document) String() string {
	return d.result.Raw
}

// Bytes returns the document as json bytes
func (d *Document) Bytes() []byte {
	return []byte(d.result.Raw)
}

// Value returns the document as a map
func (d *Document) Value() map[string]any {
	return cast.ToStringMap(d.result.Value())
}

// Snapshot converts the document into a snapshot value. A nil document is an absent snapshot.
func (d *Document) Snapshot() Value {
	if d == nil {
		return Absent()
	}
	return resultToValue(d.result)
}

func resultToValue(r gjson.Result) Value {
	switch {
	case !r.Exists():
		return Absent()
	case r.IsObject():
		fields := map[string]Value{}
		r.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = resultToValue(value)
			return true
		})
		return Map(fields)
	case r.IsArray():
		var elems []Value
		r.ForEach(func(_, value gjson.Result) bool {
			elems = append(elems, resultToValue(value))
			return true
		})
		return Seq(elems...)
	}
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.True, gjson.False:
		return Bool(r.Bool())
	case gjson.Number:
		return Number(r.Float())
	default:
		return String(r.String())
	}
}

// Clone allocates a new document with identical values
func (d *Document) Clone() *Document {
	raw := d.result.Raw
	return &Document{result: gjson.Parse(raw)}
}

// Get gets a field on the document. Get has GJSON syntax support and supports dot notation
func (d *Document) Get(field string) any {
	return d.result.Get(field).Value()
}

// GetString gets a string field value on the document. GetString has GJSON syntax support and supports dot notation
func (d *Document) GetString(field string) string {
	return d.result.Get(field).String()
}

// Set sets a field on the document. Dot notation is supported.
func (d *Document) Set(field string, val any) error {
	return d.SetAll(map[string]any{
		field: val,
	})
}

func (d *Document) set(field string, val any) error {
	var (
		result string
		err    error
	)
	switch val := val.(type) {
	case gjson.Result:
		result, err = sjson.Set(d.result.Raw, field, val.Value())
	case []byte:
		result, err = sjson.SetRaw(d.result.Raw, field, string(val))
	case Value:
		result, err = sjson.Set(d.result.Raw, field, val.Interface())
	default:
		result, err = sjson.Set(d.result.Raw, field, val)
	}
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to set field %s", field)
	}
	if !gjson.Valid(result) {
		return errors.New(errors.Validation, "invalid document")
	}
	d.result = gjson.Parse(result)
	return nil
}

// SetAll sets all fields on the document. Dot notation is supported.
func (d *Document) SetAll(values map[string]any) error {
	for k, v := range values {
		if err := d.set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Merge merges the document with the provided document. This is not an overwrite: nested
// fields of with are set one by one. Arrays are replaced as a whole.
func (d *Document) Merge(with *Document) error {
	if !with.Valid() {
		return errors.New(errors.Validation, "invalid document")
	}
	flattened, err := flat2.Flatten(with.Value(), &flat2.Options{Delimiter: ".", Safe: true})
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to flatten document")
	}
	return d.SetAll(flattened)
}

// Del deletes a field from the document
func (d *Document) Del(field string) error {
	return d.DelAll(field)
}

// DelAll deletes the fields from the document
func (d *Document) DelAll(fields ...string) error {
	for _, field := range fields {
		result, err := sjson.Delete(d.result.Raw, field)
		if err != nil {
			return errors.Wrap(err, errors.Validation, "failed to delete field %s", field)
		}
		d.result = gjson.Parse(result)
	}
	return nil
}
