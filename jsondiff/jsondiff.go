// Package jsondiff renders document changes as RFC 6902 JSON Patch operations.
// https://datatracker.ietf.org/doc/html/rfc6902#section-4
package jsondiff

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/autom8ter/casewatch"
)

// JSON Patch operation types
const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

// Diff is a series of JSON Patch operations
type Diff []Operation

// Operation is a single JSON Patch operation
type Operation struct {
	Type     string          `json:"op"`
	Path     Pointer         `json:"path"`
	OldValue casewatch.Value `json:"-"`
	Value    casewatch.Value `json:"value,omitempty"`
}

// String implements the fmt.Stringer interface.
func (o Operation) String() string {
	b, err := json.Marshal(o)
	if err != nil {
		return "<invalid operation>"
	}
	return string(b)
}

// MarshalJSON omits the value of remove operations and encodes absent values of add/replace operations as null
func (o Operation) MarshalJSON() ([]byte, error) {
	type op struct {
		Type  string          `json:"op"`
		Path  Pointer         `json:"path"`
		Value json.RawMessage `json:"value,omitempty"`
	}
	out := op{Type: o.Type, Path: o.Path}
	if o.Type != OperationRemove {
		out.Value = json.RawMessage("null")
		if !o.Value.IsAbsent() {
			bits, err := json.Marshal(o.Value)
			if err != nil {
				return nil, err
			}
			out.Value = bits
		}
	}
	return json.Marshal(out)
}

// String returns one operation per line
func (d Diff) String() string {
	sb := strings.Builder{}
	for i, op := range d {
		if i != 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Pointer is a JSON Pointer (RFC 6901)
type Pointer string

// Root is the pointer to the whole document
const Root Pointer = ""

// Append returns the pointer to the child token
func (p Pointer) Append(token string) Pointer {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return p + "/" + Pointer(token)
}

// AppendIndex returns the pointer to the sequence element
func (p Pointer) AppendIndex(i int) Pointer {
	return p + "/" + Pointer(strconv.Itoa(i))
}

// FromChange renders the change as a patch that turns the before snapshot into the after snapshot.
// Sequence elements are positional, so trailing removals are emitted from the last index down.
func FromChange(change *casewatch.DocumentChange) Diff {
	if change == nil {
		return nil
	}
	var diff Diff
	switch change.ChangeType {
	case casewatch.Unchanged:
		return diff
	case casewatch.Added, casewatch.Removed:
		// whole-document writes have a single root operation
		fields := map[string]casewatch.Value{}
		for name, node := range change.Fields {
			if change.ChangeType == casewatch.Added {
				fields[name] = casewatch.NewValue(node)
			} else {
				fields[name] = casewatch.OldValue(node)
			}
		}
		if change.ChangeType == casewatch.Added {
			return append(diff, Operation{Type: OperationAdd, Path: Root, Value: casewatch.Map(fields)})
		}
		return append(diff, Operation{Type: OperationRemove, Path: Root, OldValue: casewatch.Map(fields)})
	}
	diff.appendFields(Root, change.Fields)
	return diff
}

func (d *Diff) appendFields(path Pointer, fields map[string]casewatch.ChangeNode) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.appendNode(path.Append(name), fields[name])
	}
}

func (d *Diff) appendNode(path Pointer, node casewatch.ChangeNode) {
	switch node.Type() {
	case casewatch.Unchanged:
		return
	case casewatch.Added:
		*d = append(*d, Operation{Type: OperationAdd, Path: path, Value: casewatch.NewValue(node)})
		return
	case casewatch.Removed:
		*d = append(*d, Operation{Type: OperationRemove, Path: path, OldValue: casewatch.OldValue(node)})
		return
	}
	switch node := node.(type) {
	case *casewatch.ObjectChange:
		d.appendFields(path, node.Fields)
	case *casewatch.SequenceChange:
		var removed []int
		for i, elem := range node.Elements {
			if elem.Type() == casewatch.Removed {
				removed = append(removed, i)
				continue
			}
			d.appendNode(path.AppendIndex(i), elem)
		}
		for i := len(removed) - 1; i >= 0; i-- {
			d.appendNode(path.AppendIndex(removed[i]), node.Elements[removed[i]])
		}
	default:
		*d = append(*d, Operation{
			Type:     OperationReplace,
			Path:     path,
			OldValue: casewatch.OldValue(node),
			Value:    casewatch.NewValue(node),
		})
	}
}
