package casewatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("scalars", func(t *testing.T) {
		for _, scalar := range []Value{String("a"), Number(1), Bool(true), Null()} {
			node := Classify(scalar, scalar)
			require.IsType(t, &FieldChange{}, node)
			assert.Equal(t, Unchanged, node.Type())
		}
		assert.Equal(t, Updated, Classify(String("a"), String("b")).Type())
		assert.Equal(t, Updated, Classify(Number(1), String("1")).Type())
		assert.Equal(t, Added, Classify(Absent(), String("b")).Type())
		assert.Equal(t, Removed, Classify(String("a"), Absent()).Type())
		assert.Equal(t, Added, Classify(Absent(), Null()).Type())

		field := Classify(String("a"), String("b")).(*FieldChange)
		assert.Equal(t, "a", field.OldValue.Interface())
		assert.Equal(t, "b", field.NewValue.Interface())
	})
	t.Run("identical sequence", func(t *testing.T) {
		seq := MustFromAny([]any{1, "a", map[string]any{"b": []any{true}}})
		node := Classify(seq, seq)
		require.IsType(t, &SequenceChange{}, node)
		assert.Equal(t, Unchanged, node.Type())
		assert.Len(t, Elements(node), 3)
		for _, elem := range Elements(node) {
			assert.Equal(t, Unchanged, elem.Type())
		}
	})
	t.Run("append to sequence", func(t *testing.T) {
		node := Classify(MustFromAny([]any{1, 2}), MustFromAny([]any{1, 2, 3}))
		require.IsType(t, &SequenceChange{}, node)
		assert.Equal(t, Updated, node.Type())
		require.Len(t, Elements(node), 3)
		assert.Equal(t, Unchanged, Element(node, 0).Type())
		assert.Equal(t, Unchanged, Element(node, 1).Type())
		assert.Equal(t, Added, Element(node, 2).Type())
		assert.Equal(t, float64(3), NewValue(Element(node, 2)).Interface())
	})
	t.Run("remove from sequence", func(t *testing.T) {
		node := Classify(MustFromAny([]any{1, 2, 3}), MustFromAny([]any{1}))
		assert.Equal(t, Updated, node.Type())
		require.Len(t, Elements(node), 3)
		assert.Equal(t, Unchanged, Element(node, 0).Type())
		assert.Equal(t, Removed, Element(node, 1).Type())
		assert.Equal(t, Removed, Element(node, 2).Type())
	})
	t.Run("reordered sequence is compared by index", func(t *testing.T) {
		node := Classify(MustFromAny([]any{"a", "b"}), MustFromAny([]any{"b", "a"}))
		assert.Equal(t, Updated, node.Type())
		assert.Equal(t, Updated, Element(node, 0).Type())
		assert.Equal(t, Updated, Element(node, 1).Type())
	})
	t.Run("absent sequence", func(t *testing.T) {
		node := Classify(Absent(), MustFromAny([]any{"a"}))
		require.IsType(t, &SequenceChange{}, node)
		assert.Equal(t, Added, node.Type())
		assert.Equal(t, Added, Element(node, 0).Type())

		node = Classify(MustFromAny([]any{"a"}), Absent())
		require.IsType(t, &SequenceChange{}, node)
		assert.Equal(t, Removed, node.Type())
		assert.Equal(t, Removed, Element(node, 0).Type())
	})
	t.Run("both absent", func(t *testing.T) {
		node := Classify(Absent(), Absent())
		assert.Equal(t, Unchanged, node.Type())
		assert.Empty(t, Elements(node))
	})
	t.Run("nested leaf update", func(t *testing.T) {
		before := MustFromAny(map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 2}, "e": 3}})
		after := MustFromAny(map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 5}, "e": 3}})
		node := Classify(before, after)
		require.IsType(t, &ObjectChange{}, node)
		assert.Equal(t, Updated, node.Type())
		assert.Equal(t, Updated, Lookup(node, "a").Type())
		assert.Equal(t, Updated, Lookup(node, "a.b").Type())
		assert.Equal(t, Updated, Lookup(node, "a.b.d").Type())
		assert.Equal(t, Unchanged, Lookup(node, "a.b.c").Type())
		assert.Equal(t, Unchanged, Lookup(node, "a.e").Type())
	})
	t.Run("added object", func(t *testing.T) {
		node := Classify(Absent(), MustFromAny(map[string]any{"a": 1, "b": []any{1}}))
		require.IsType(t, &ObjectChange{}, node)
		assert.Equal(t, Added, node.Type())
		assert.Equal(t, Added, Field(node, "a").Type())
		assert.IsType(t, &SequenceChange{}, Field(node, "b"))
		assert.Equal(t, Added, Field(node, "b").Type())
	})
	t.Run("added empty object", func(t *testing.T) {
		node := Classify(Absent(), Map(nil))
		require.IsType(t, &ObjectChange{}, node)
		assert.Equal(t, Added, node.Type())
	})
	t.Run("type mismatch is an opaque replacement", func(t *testing.T) {
		node := Classify(MustFromAny(map[string]any{"a": 1}), MustFromAny([]any{1}))
		require.IsType(t, &FieldChange{}, node)
		assert.Equal(t, Updated, node.Type())

		node = Classify(MustFromAny([]any{1}), String("a"))
		require.IsType(t, &FieldChange{}, node)
		assert.Equal(t, Updated, node.Type())

		node = Classify(Null(), MustFromAny(map[string]any{"a": 1}))
		require.IsType(t, &FieldChange{}, node)
		assert.Equal(t, Updated, node.Type())
	})
	t.Run("max depth", func(t *testing.T) {
		before := MustFromAny(map[string]any{"a": map[string]any{"b": 1}})
		after := MustFromAny(map[string]any{"a": map[string]any{"b": 2}})
		node := NewClassifier(1).Classify(before, after)
		require.IsType(t, &ObjectChange{}, node)
		assert.Equal(t, Updated, node.Type())
		require.IsType(t, &FieldChange{}, Field(node, "a"))
		assert.Equal(t, Updated, Field(node, "a").Type())
		assert.Nil(t, Lookup(node, "a.b"))
	})
	t.Run("zero classifier uses default depth", func(t *testing.T) {
		node := Classifier{}.Classify(MustFromAny([]any{1}), MustFromAny([]any{2}))
		assert.Equal(t, Updated, Element(node, 0).Type())
	})
}

func TestCollapse(t *testing.T) {
	unchanged := &FieldChange{ChangeType: Unchanged}
	updated := &FieldChange{ChangeType: Updated}
	assert.Equal(t, Unchanged, collapse(Updated, []ChangeNode{unchanged, unchanged}))
	assert.Equal(t, Unchanged, collapse(Updated, nil))
	assert.Equal(t, Updated, collapse(Updated, []ChangeNode{unchanged, updated}))
	assert.Equal(t, Added, collapse(Added, nil))
	assert.Equal(t, Removed, collapse(Removed, []ChangeNode{unchanged}))
	assert.Equal(t, Unchanged, collapse(Unchanged, []ChangeNode{updated}))
}

func TestChangeTypeOf(t *testing.T) {
	assert.Equal(t, Unchanged, changeTypeOf(Absent(), Absent()))
	assert.Equal(t, Added, changeTypeOf(Absent(), Map(nil)))
	assert.Equal(t, Removed, changeTypeOf(Map(nil), Absent()))
	assert.Equal(t, Unchanged, changeTypeOf(Map(nil), Map(nil)))
	assert.Equal(t, Updated, changeTypeOf(Seq(), Seq(Null())))
}
