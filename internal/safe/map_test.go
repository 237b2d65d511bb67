package safe_test

import (
	"fmt"
	"testing"

	"github.com/autom8ter/casewatch/internal/safe"
	"github.com/stretchr/testify/assert"
)

func Test(t *testing.T) {
	m := safe.NewMap[[]string](nil)
	assert.False(t, m.Exists("1"))
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprint(i), []string{fmt.Sprint(i)})
	}
	for i := 0; i < 10; i++ {
		assert.True(t, m.Exists(fmt.Sprint(i)))
		entry, ok := m.Lookup(fmt.Sprint(i))
		assert.True(t, ok)
		assert.Equal(t, []string{fmt.Sprint(i)}, entry)
	}
	assert.Len(t, m.Keys(), 10)
	assert.Equal(t, "0", m.Keys()[0])
	for i := 0; i < 10; i++ {
		m.Del(fmt.Sprint(i))
	}
	for i := 0; i < 10; i++ {
		assert.False(t, m.Exists(fmt.Sprint(i)))
	}
	m.SetFunc("InputsAdded", func(handlers []string) []string {
		return append(handlers, "transcribe")
	})
	m.SetFunc("InputsAdded", func(handlers []string) []string {
		return append(handlers, "notify")
	})
	assert.Equal(t, []string{"transcribe", "notify"}, m.Get("InputsAdded"))
}
