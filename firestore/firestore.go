// Package firestore adapts document-written trigger payloads into before/after snapshot values.
package firestore

import (
	"strconv"
	"strings"
	"time"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/tidwall/gjson"
)

// Event is a decoded document-written event
type Event struct {
	// Name is the full resource name of the document
	Name string `json:"name"`
	// Collection is the id of the collection the document belongs to
	Collection string `json:"collection"`
	// DocumentID is the id of the document
	DocumentID string          `json:"documentId"`
	Before     casewatch.Value `json:"before"`
	After      casewatch.Value `json:"after"`
	// UpdateMask lists the field paths the write touched (update events only)
	UpdateMask []string  `json:"updateMask"`
	UpdateTime time.Time `json:"updateTime"`
}

// Trigger converts the event into a trigger with the given event metadata
func (e *Event) Trigger(eventID string, occurredAt time.Time) casewatch.Trigger {
	if occurredAt.IsZero() {
		occurredAt = e.UpdateTime
	}
	return casewatch.Trigger{
		DocumentID: e.DocumentID,
		EventID:    eventID,
		OccurredAt: occurredAt,
		Before:     e.Before,
		After:      e.After,
	}
}

// ParseEvent decodes a document-written payload:
//
//	{"oldValue": {"name": ..., "fields": {...}}, "value": {"name": ..., "fields": {...}}, "updateMask": {"fieldPaths": [...]}}
//
// A missing or empty oldValue/value is an absent snapshot (create/delete).
func ParseEvent(payload []byte) (*Event, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errors.New(errors.Validation, "invalid event payload")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, errors.New(errors.Validation, "invalid event payload: expected an object")
	}
	before, err := decodeDocument(root.Get("oldValue"))
	if err != nil {
		return nil, errors.Wrap(err, 0, "oldValue")
	}
	after, err := decodeDocument(root.Get("value"))
	if err != nil {
		return nil, errors.Wrap(err, 0, "value")
	}
	name := root.Get("value.name").String()
	if name == "" {
		name = root.Get("oldValue.name").String()
	}
	e := &Event{
		Name:   name,
		Before: before,
		After:  after,
	}
	e.Collection, e.DocumentID = splitName(name)
	for _, path := range root.Get("updateMask.fieldPaths").Array() {
		e.UpdateMask = append(e.UpdateMask, path.String())
	}
	if updateTime := root.Get("value.updateTime"); updateTime.Exists() {
		e.UpdateTime = updateTime.Time()
	}
	return e, nil
}

// splitName returns the collection id & document id of a resource name (ex: projects/p/databases/(default)/documents/cases/abc)
func splitName(name string) (string, string) {
	segments := strings.Split(strings.Trim(name, "/"), "/")
	switch len(segments) {
	case 0:
		return "", ""
	case 1:
		return "", segments[0]
	default:
		return segments[len(segments)-2], segments[len(segments)-1]
	}
}

func decodeDocument(doc gjson.Result) (casewatch.Value, error) {
	if !doc.Exists() || !doc.IsObject() {
		return casewatch.Absent(), nil
	}
	if doc.Get("name").String() == "" && !doc.Get("fields").Exists() {
		return casewatch.Absent(), nil
	}
	return DecodeFields(doc.Get("fields"))
}

// DecodeFields decodes a typed field map into a mapping value. A missing field map is an empty mapping.
func DecodeFields(fields gjson.Result) (casewatch.Value, error) {
	values := map[string]casewatch.Value{}
	if !fields.Exists() {
		return casewatch.Map(values), nil
	}
	if !fields.IsObject() {
		return casewatch.Value{}, errors.New(errors.Validation, "invalid fields: expected an object")
	}
	var err error
	fields.ForEach(func(key, value gjson.Result) bool {
		var decoded casewatch.Value
		decoded, err = DecodeValue(value)
		if err != nil {
			err = errors.Wrap(err, 0, "field %s", key.String())
			return false
		}
		values[key.String()] = decoded
		return true
	})
	if err != nil {
		return casewatch.Value{}, err
	}
	return casewatch.Map(values), nil
}

// DecodeValue decodes a single typed value (ex: {"stringValue": "abc"})
func DecodeValue(typed gjson.Result) (casewatch.Value, error) {
	if !typed.IsObject() {
		return casewatch.Value{}, errors.New(errors.Validation, "invalid typed value: %s", typed.Raw)
	}
	var (
		result casewatch.Value
		err    error
		found  bool
	)
	typed.ForEach(func(key, value gjson.Result) bool {
		found = true
		result, err = decodeTyped(key.String(), value)
		return false
	})
	if !found {
		return casewatch.Value{}, errors.New(errors.Validation, "invalid typed value: empty")
	}
	return result, err
}

func decodeTyped(typ string, value gjson.Result) (casewatch.Value, error) {
	switch typ {
	case "nullValue":
		return casewatch.Null(), nil
	case "booleanValue":
		return casewatch.Bool(value.Bool()), nil
	case "integerValue":
		f, err := strconv.ParseFloat(value.String(), 64)
		if err != nil {
			return casewatch.Value{}, errors.Wrap(err, errors.Validation, "invalid integerValue: %s", value.Raw)
		}
		return casewatch.Number(f), nil
	case "doubleValue":
		return casewatch.Number(value.Float()), nil
	case "timestampValue", "stringValue", "bytesValue", "referenceValue":
		return casewatch.String(value.String()), nil
	case "geoPointValue":
		return casewatch.Map(map[string]casewatch.Value{
			"latitude":  casewatch.Number(value.Get("latitude").Float()),
			"longitude": casewatch.Number(value.Get("longitude").Float()),
		}), nil
	case "arrayValue":
		var elems []casewatch.Value
		for i, elem := range value.Get("values").Array() {
			decoded, err := DecodeValue(elem)
			if err != nil {
				return casewatch.Value{}, errors.Wrap(err, 0, "index %d", i)
			}
			elems = append(elems, decoded)
		}
		return casewatch.Seq(elems...), nil
	case "mapValue":
		return DecodeFields(value.Get("fields"))
	default:
		return casewatch.Value{}, errors.New(errors.Validation, "unsupported value type: %s", typ)
	}
}
