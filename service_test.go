package casewatch_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts ...casewatch.Opt) *casewatch.Service {
	svc, err := casewatch.New(casewatch.DefaultConfig(), append([]casewatch.Opt{casewatch.WithLogger(casewatch.NopLogger())}, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestService(t *testing.T) {
	ctx := context.Background()
	t.Run("new with invalid config", func(t *testing.T) {
		cfg := casewatch.DefaultConfig()
		cfg.LogLevel = "verbose"
		_, err := casewatch.New(cfg)
		require.Error(t, err)
		assert.Equal(t, errors.Validation, errors.Extract(err).Code)
	})
	t.Run("new applies defaults", func(t *testing.T) {
		svc, err := casewatch.New(casewatch.Config{}, casewatch.WithLogger(casewatch.NopLogger()))
		require.NoError(t, err)
		assert.Equal(t, casewatch.DefaultConfig().Collection, svc.Config().Collection)
		assert.Equal(t, casewatch.DefaultMaxDepth, svc.Config().MaxDepth)
		assert.NotNil(t, svc.Logger())
		assert.NotNil(t, svc.Stream())
		assert.NotNil(t, svc.Dispatcher())
	})
	t.Run("handle new case with inputs", func(t *testing.T) {
		rec := &recorder{}
		svc := newService(t, casewatch.WithInputSourceProcessor(rec), casewatch.WithContentRequestProcessor(rec))
		input := testutil.NewInput("transcribing")
		after := testutil.NewCaseDoc([]map[string]any{input}, nil)
		events, err := svc.Handle(ctx, casewatch.DocumentTrigger("c1", "ev1", madeAt, nil, after))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, casewatch.InputsAdded{CaseID: "c1", InputIDs: []string{input["id"].(string)}}, events[0])
		assert.Equal(t, []string{fmt.Sprintf("c1/%s", input["id"])}, rec.sortedInputs())
		assert.Empty(t, rec.requests)
	})
	t.Run("handle requests changed", func(t *testing.T) {
		rec := &recorder{}
		svc := newService(t, casewatch.WithContentRequestProcessor(rec))
		request := testutil.NewRequest("processing")
		content := testutil.NewContent(request)
		before := testutil.NewCaseDoc(nil, []map[string]any{content})

		after := before.Clone()
		require.NoError(t, after.Set("contents.0.requests.0.result.status", "waiting_review"))
		events, err := svc.Handle(ctx, casewatch.DocumentTrigger("c1", "", time.Time{}, before, after))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, casewatch.RequestsChangedKind, events[0].Kind())
		expected := []casewatch.ContentRequestRef{{
			CaseID:    "c1",
			ContentID: content["contentId"].(string),
			RequestID: request["requestId"].(string),
		}}
		assert.Equal(t, expected, events[0].(casewatch.RequestsChanged).Requests)
		assert.Equal(t, expected, rec.requests)
	})
	t.Run("handle unchanged document", func(t *testing.T) {
		svc := newService(t)
		doc := testutil.NewCaseDoc([]map[string]any{testutil.NewInput("transcribed")}, nil)
		events, err := svc.Handle(ctx, casewatch.DocumentTrigger("c1", "ev1", madeAt, doc, doc.Clone()))
		require.NoError(t, err)
		assert.Empty(t, events)
	})
	t.Run("handle returns events when a processor fails", func(t *testing.T) {
		svc := newService(t, casewatch.WithInputSourceProcessor(casewatch.InputSourceProcessorFunc(func(ctx context.Context, caseID, inputID string) error {
			return fmt.Errorf("storage unavailable")
		})))
		after := testutil.NewCaseDoc([]map[string]any{testutil.NewInput("transcribing")}, nil)
		events, err := svc.Handle(ctx, casewatch.DocumentTrigger("c1", "ev1", madeAt, nil, after))
		require.Error(t, err)
		assert.Len(t, events, 1)
	})
	t.Run("handle without a document id", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.Handle(ctx, casewatch.Trigger{After: casewatch.MustFromAny(map[string]any{"name": "x"})})
		require.Error(t, err)
		assert.Equal(t, errors.Validation, errors.Extract(err).Code)
	})
	t.Run("detect assigns event metadata", func(t *testing.T) {
		svc := newService(t)
		change, events, err := svc.Detect(ctx, casewatch.Trigger{
			DocumentID: "c1",
			After:      casewatch.MustFromAny(map[string]any{"name": "x"}),
		})
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.NotEmpty(t, change.EventID)
		assert.False(t, change.OccurredAt.IsZero())
		assert.Equal(t, casewatch.Added, change.ChangeType)
	})
	t.Run("custom detectors", func(t *testing.T) {
		svc := newService(t, casewatch.WithDetectors(casewatch.Detector{
			Name: "renamed",
			Detect: func(change *casewatch.DocumentChange) casewatch.DomainEvent {
				if change.Field("name").Type() != casewatch.Updated {
					return nil
				}
				return casewatch.InputsAdded{CaseID: change.DocumentID, InputIDs: []string{"renamed"}}
			},
		}))
		_, events, err := svc.Detect(ctx, casewatch.Trigger{
			DocumentID: "c1",
			Before:     casewatch.MustFromAny(map[string]any{"name": "x"}),
			After:      casewatch.MustFromAny(map[string]any{"name": "y"}),
		})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
	t.Run("detected events are broadcast", func(t *testing.T) {
		svc := newService(t)
		sctx, cancel := context.WithCancel(ctx)
		received := make(chan casewatch.DomainEvent, 1)
		require.NoError(t, svc.Stream().Pull(sctx, casewatch.AllEvents, func(e casewatch.DomainEvent) (bool, error) {
			received <- e
			return false, nil
		}))
		time.Sleep(1 * time.Second)
		after := testutil.NewCaseDoc([]map[string]any{testutil.NewInput("transcribing")}, nil)
		_, err := svc.Handle(ctx, casewatch.DocumentTrigger("c1", "ev1", madeAt, nil, after))
		require.NoError(t, err)
		select {
		case e := <-received:
			assert.Equal(t, casewatch.InputsAddedKind, e.Kind())
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
		cancel()
		assert.NoError(t, svc.Wait())
	})
}
