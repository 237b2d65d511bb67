package casewatch_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	inputs   []string
	requests []casewatch.ContentRequestRef
}

func (r *recorder) ProcessInputSource(ctx context.Context, caseID, inputID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, fmt.Sprintf("%s/%s", caseID, inputID))
	return nil
}

func (r *recorder) ProcessContentRequest(ctx context.Context, request casewatch.ContentRequestRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, request)
	return nil
}

func (r *recorder) sortedInputs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	inputs := append([]string{}, r.inputs...)
	sort.Strings(inputs)
	return inputs
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	events := []casewatch.DomainEvent{
		casewatch.InputsAdded{CaseID: "c1", InputIDs: []string{"a", "b"}},
		casewatch.RequestsChanged{CaseID: "c1", Requests: []casewatch.ContentRequestRef{{CaseID: "c1", ContentID: "x", RequestID: "r1"}}},
	}
	t.Run("routes events by kind", func(t *testing.T) {
		rec := &recorder{}
		d := casewatch.NewDispatcher(nil)
		d.On(casewatch.InputsAddedKind, casewatch.InputSourceHandler(rec))
		d.On(casewatch.RequestsChangedKind, casewatch.ContentRequestHandler(rec))
		assert.Equal(t, []string{"InputsAdded", "RequestsChanged"}, d.Kinds())
		require.NoError(t, d.Dispatch(ctx, events))
		assert.Equal(t, []string{"c1/a", "c1/b"}, rec.sortedInputs())
		assert.Equal(t, []casewatch.ContentRequestRef{{CaseID: "c1", ContentID: "x", RequestID: "r1"}}, rec.requests)
	})
	t.Run("events without handlers are skipped", func(t *testing.T) {
		rec := &recorder{}
		d := casewatch.NewDispatcher(casewatch.NopLogger())
		d.On(casewatch.InputsAddedKind, casewatch.InputSourceHandler(rec))
		require.NoError(t, d.Dispatch(ctx, events))
		assert.Len(t, rec.sortedInputs(), 2)
		assert.Empty(t, rec.requests)
	})
	t.Run("handler failure doesn't block other events", func(t *testing.T) {
		rec := &recorder{}
		d := casewatch.NewDispatcher(nil)
		d.On(casewatch.InputsAddedKind, casewatch.InputSourceHandler(casewatch.InputSourceProcessorFunc(func(ctx context.Context, caseID, inputID string) error {
			return fmt.Errorf("transcription failed")
		})))
		d.On(casewatch.RequestsChangedKind, casewatch.ContentRequestHandler(rec))
		err := d.Dispatch(ctx, events)
		require.Error(t, err)
		assert.Equal(t, errors.Internal, errors.Extract(err).Code)
		assert.Len(t, rec.requests, 1)
	})
	t.Run("handlers ignore other event types", func(t *testing.T) {
		rec := &recorder{}
		handler := casewatch.InputSourceHandler(rec)
		require.NoError(t, handler(ctx, events[1]))
		assert.Empty(t, rec.sortedInputs())
		handler = casewatch.ContentRequestHandler(casewatch.ContentRequestProcessorFunc(rec.ProcessContentRequest))
		require.NoError(t, handler(ctx, events[0]))
		assert.Empty(t, rec.requests)
	})
}
