package casewatch

import (
	"time"
)

// DocumentChange is the change tree of a whole document produced from a single write trigger.
// It is built fresh per trigger and never mutated afterwards.
type DocumentChange struct {
	DocumentID string    `json:"documentId"`
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
	// ChangeType is the presence/deep-equality classification of the whole document. It is not collapsed.
	ChangeType ChangeType `json:"changeType"`
	// Fields holds one change node per top-level field in the union of the before & after field sets
	Fields map[string]ChangeNode `json:"fields"`
}

// BuildDocumentChange diffs a before/after document pair. Absent or non-mapping snapshots are treated as
// empty documents for the purpose of field classification.
func BuildDocumentChange(documentID, eventID string, occurredAt time.Time, before, after Value) *DocumentChange {
	return NewClassifier(DefaultMaxDepth).BuildDocumentChange(documentID, eventID, occurredAt, before, after)
}

// BuildDocumentChange diffs a before/after document pair with the classifier's depth limit
func (c Classifier) BuildDocumentChange(documentID, eventID string, occurredAt time.Time, before, after Value) *DocumentChange {
	return &DocumentChange{
		DocumentID: documentID,
		EventID:    eventID,
		OccurredAt: occurredAt,
		ChangeType: changeTypeOf(before, after),
		Fields:     c.ClassifyFields(before, after),
	}
}

// Field returns the change node of a top-level field, or nil if neither snapshot had the field
func (d *DocumentChange) Field(name string) ChangeNode {
	if d == nil {
		return nil
	}
	node, ok := d.Fields[name]
	if !ok {
		return nil
	}
	return node
}

// Lookup navigates the change tree with a dot notation path (ex: "contents.0.requests.1.status")
func (d *DocumentChange) Lookup(path string) ChangeNode {
	if d == nil {
		return nil
	}
	return Lookup(&ObjectChange{ChangeType: d.ChangeType, Fields: d.Fields}, path)
}

// Ops flattens the change tree into leaf level changes, skipping unchanged leaves. Ops are ordered
// by field name & element index.
func (d *DocumentChange) Ops() []FieldOp {
	var ops []FieldOp
	if d == nil {
		return ops
	}
	collectFieldOps("", d.Fields, &ops)
	return ops
}
