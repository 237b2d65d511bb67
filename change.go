package casewatch

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ChangeType is the classification of a before/after pair
type ChangeType string

const (
	// Added indicates the value was absent before and present after
	Added ChangeType = "added"
	// Removed indicates the value was present before and absent after
	Removed ChangeType = "removed"
	// Updated indicates the value was present on both sides and not deep-equal
	Updated ChangeType = "updated"
	// Unchanged indicates the value is deep-equal on both sides (or absent on both sides)
	Unchanged ChangeType = "unchanged"
)

// Changed returns true if the change type is anything but Unchanged
func (c ChangeType) Changed() bool {
	return c != Unchanged
}

// In returns true if the change type is one of the given types
func (c ChangeType) In(types ...ChangeType) bool {
	return lo.Contains(types, c)
}

// ChangeNode is a node of a change tree. It is one of *FieldChange, *ObjectChange or *SequenceChange.
type ChangeNode interface {
	// Type returns the change type of the node
	Type() ChangeType
	isChangeNode()
}

// FieldChange is a leaf change: a scalar pair or a pair of mismatched shapes
type FieldChange struct {
	OldValue   Value      `json:"oldValue"`
	NewValue   Value      `json:"newValue"`
	ChangeType ChangeType `json:"changeType"`
}

// ObjectChange is the change of a mapping (or a mapping and an absent value)
type ObjectChange struct {
	ChangeType ChangeType            `json:"changeType"`
	Fields     map[string]ChangeNode `json:"fields"`
	OldValue   Value                 `json:"-"`
	NewValue   Value                 `json:"-"`
}

// SequenceChange is the change of a sequence (or a sequence and an absent value). Elements are aligned by index.
type SequenceChange struct {
	ChangeType ChangeType   `json:"changeType"`
	Elements   []ChangeNode `json:"elements"`
	OldValue   Value        `json:"-"`
	NewValue   Value        `json:"-"`
}

func (f *FieldChange) Type() ChangeType    { return f.ChangeType }
func (o *ObjectChange) Type() ChangeType   { return o.ChangeType }
func (s *SequenceChange) Type() ChangeType { return s.ChangeType }

func (f *FieldChange) isChangeNode()    {}
func (o *ObjectChange) isChangeNode()   {}
func (s *SequenceChange) isChangeNode() {}

// MarshalJSON adds a kind discriminator to the json output
func (f *FieldChange) MarshalJSON() ([]byte, error) {
	type alias FieldChange
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: "field", alias: (*alias)(f)})
}

// MarshalJSON adds a kind discriminator to the json output
func (o *ObjectChange) MarshalJSON() ([]byte, error) {
	type alias ObjectChange
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: "object", alias: (*alias)(o)})
}

// MarshalJSON adds a kind discriminator to the json output
func (s *SequenceChange) MarshalJSON() ([]byte, error) {
	type alias SequenceChange
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: "sequence", alias: (*alias)(s)})
}

// Field returns the named child of an object change. It returns nil if node isn't an object change or doesn't have the field.
func Field(node ChangeNode, name string) ChangeNode {
	obj, ok := node.(*ObjectChange)
	if !ok || obj == nil {
		return nil
	}
	child, ok := obj.Fields[name]
	if !ok {
		return nil
	}
	return child
}

// Element returns the i-th element of a sequence change. It returns nil if node isn't a sequence change or i is out of range.
func Element(node ChangeNode, i int) ChangeNode {
	seq, ok := node.(*SequenceChange)
	if !ok || seq == nil || i < 0 || i >= len(seq.Elements) {
		return nil
	}
	return seq.Elements[i]
}

// Elements returns the elements of a sequence change, or nil if node isn't a sequence change
func Elements(node ChangeNode) []ChangeNode {
	seq, ok := node.(*SequenceChange)
	if !ok || seq == nil {
		return nil
	}
	return seq.Elements
}

// NewValue returns the after value of the node (Absent if node is nil)
func NewValue(node ChangeNode) Value {
	switch node := node.(type) {
	case *FieldChange:
		return node.NewValue
	case *ObjectChange:
		return node.NewValue
	case *SequenceChange:
		return node.NewValue
	}
	return Absent()
}

// OldValue returns the before value of the node (Absent if node is nil)
func OldValue(node ChangeNode) Value {
	switch node := node.(type) {
	case *FieldChange:
		return node.OldValue
	case *ObjectChange:
		return node.OldValue
	case *SequenceChange:
		return node.OldValue
	}
	return Absent()
}

// TypeOf returns the change type of the node. A nil node is Unchanged.
func TypeOf(node ChangeNode) ChangeType {
	if node == nil {
		return Unchanged
	}
	return node.Type()
}

// Lookup navigates the change tree with a dot notation path. Numeric path segments index sequences.
// Missing paths return nil.
func Lookup(node ChangeNode, path string) ChangeNode {
	if path == "" {
		return node
	}
	for _, segment := range strings.Split(path, ".") {
		if node == nil {
			return nil
		}
		if _, ok := node.(*SequenceChange); ok {
			i, err := strconv.Atoi(segment)
			if err != nil {
				return nil
			}
			node = Element(node, i)
			continue
		}
		node = Field(node, segment)
	}
	return node
}

// FieldOp is a leaf level change at a dot notation path
type FieldOp struct {
	Path       string     `json:"path"`
	ChangeType ChangeType `json:"changeType"`
	OldValue   Value      `json:"oldValue"`
	NewValue   Value      `json:"newValue"`
}

func collectOps(prefix string, node ChangeNode, ops *[]FieldOp) {
	if node == nil || !node.Type().Changed() {
		return
	}
	switch node := node.(type) {
	case *ObjectChange:
		if len(node.Fields) == 0 {
			*ops = append(*ops, FieldOp{Path: prefix, ChangeType: node.ChangeType, OldValue: node.OldValue, NewValue: node.NewValue})
			return
		}
		collectFieldOps(prefix, node.Fields, ops)
	case *SequenceChange:
		if len(node.Elements) == 0 {
			*ops = append(*ops, FieldOp{Path: prefix, ChangeType: node.ChangeType, OldValue: node.OldValue, NewValue: node.NewValue})
			return
		}
		for i, elem := range node.Elements {
			collectOps(joinPath(prefix, strconv.Itoa(i)), elem, ops)
		}
	case *FieldChange:
		*ops = append(*ops, FieldOp{Path: prefix, ChangeType: node.ChangeType, OldValue: node.OldValue, NewValue: node.NewValue})
	}
}

func collectFieldOps(prefix string, fields map[string]ChangeNode, ops *[]FieldOp) {
	keys := lo.Keys(fields)
	sort.Strings(keys)
	for _, k := range keys {
		collectOps(joinPath(prefix, k), fields[k], ops)
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
