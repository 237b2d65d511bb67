package casewatch

// DefaultMaxDepth is the default nesting depth the classifier recurses into before treating values as opaque leaves
const DefaultMaxDepth = 64

// Classifier builds change trees out of before/after value pairs
type Classifier struct {
	// MaxDepth bounds recursion. Pairs nested deeper than MaxDepth are classified as opaque FieldChange leaves.
	MaxDepth int
}

// NewClassifier returns a classifier with the given max depth (DefaultMaxDepth if <= 0)
func NewClassifier(maxDepth int) Classifier {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return Classifier{MaxDepth: maxDepth}
}

// Classify classifies a single before/after pair and recurses into containers
func Classify(before, after Value) ChangeNode {
	return NewClassifier(DefaultMaxDepth).Classify(before, after)
}

// Classify classifies a single before/after pair and recurses into containers
func (c Classifier) Classify(before, after Value) ChangeNode {
	return c.classify(before, after, 0)
}

// ClassifyFields classifies every field in the union of the before & after field sets. Absent or non-mapping
// sides are treated as empty mappings.
func (c Classifier) ClassifyFields(before, after Value) map[string]ChangeNode {
	return c.classifyFields(before, after, 0)
}

func (c Classifier) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func (c Classifier) classify(before, after Value, depth int) ChangeNode {
	shallow := changeTypeOf(before, after)
	if depth >= c.maxDepth() {
		return &FieldChange{OldValue: before, NewValue: after, ChangeType: shallow}
	}
	switch {
	case seqOrAbsent(before) && seqOrAbsent(after):
		n := max(before.Len(), after.Len())
		elements := make([]ChangeNode, n)
		for i := 0; i < n; i++ {
			elements[i] = c.classify(before.Index(i), after.Index(i), depth+1)
		}
		return &SequenceChange{
			ChangeType: collapse(shallow, elements),
			Elements:   elements,
			OldValue:   before,
			NewValue:   after,
		}
	case mapOrAbsent(before) && mapOrAbsent(after):
		fields := c.classifyFields(before, after, depth)
		children := make([]ChangeNode, 0, len(fields))
		for _, f := range fields {
			children = append(children, f)
		}
		return &ObjectChange{
			ChangeType: collapse(shallow, children),
			Fields:     fields,
			OldValue:   before,
			NewValue:   after,
		}
	default:
		return &FieldChange{OldValue: before, NewValue: after, ChangeType: shallow}
	}
}

func (c Classifier) classifyFields(before, after Value, depth int) map[string]ChangeNode {
	fields := map[string]ChangeNode{}
	for _, k := range before.Keys() {
		fields[k] = c.classify(before.Get(k), after.Get(k), depth+1)
	}
	for _, k := range after.Keys() {
		if _, ok := fields[k]; ok {
			continue
		}
		fields[k] = c.classify(before.Get(k), after.Get(k), depth+1)
	}
	return fields
}

// collapse downgrades an Updated container to Unchanged when none of its children changed
func collapse(shallow ChangeType, children []ChangeNode) ChangeType {
	if shallow != Updated {
		return shallow
	}
	for _, child := range children {
		if child.Type().Changed() {
			return Updated
		}
	}
	return Unchanged
}

// changeTypeOf classifies a pair by presence & deep equality only
func changeTypeOf(before, after Value) ChangeType {
	switch {
	case before.IsAbsent() && !after.IsAbsent():
		return Added
	case !before.IsAbsent() && after.IsAbsent():
		return Removed
	case !before.IsAbsent() && !after.IsAbsent() && !Equal(before, after):
		return Updated
	default:
		return Unchanged
	}
}

func seqOrAbsent(v Value) bool {
	return v.IsSeq() || v.IsAbsent()
}

func mapOrAbsent(v Value) bool {
	return v.IsMap() || v.IsAbsent()
}
