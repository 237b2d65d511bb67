package casewatch

import (
	"context"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/internal/safe"
	"golang.org/x/sync/errgroup"
)

// InputSourceProcessor processes (transcribes) an input source that was added to a case
type InputSourceProcessor interface {
	ProcessInputSource(ctx context.Context, caseID, inputID string) error
}

// InputSourceProcessorFunc is an adaptor to allow the use of ordinary functions as InputSourceProcessor implementations
type InputSourceProcessorFunc func(ctx context.Context, caseID, inputID string) error

func (fn InputSourceProcessorFunc) ProcessInputSource(ctx context.Context, caseID, inputID string) error {
	return fn(ctx, caseID, inputID)
}

// ContentRequestProcessor generates the content of a content request that was added or updated
type ContentRequestProcessor interface {
	ProcessContentRequest(ctx context.Context, request ContentRequestRef) error
}

// ContentRequestProcessorFunc is an adaptor to allow the use of ordinary functions as ContentRequestProcessor implementations
type ContentRequestProcessorFunc func(ctx context.Context, request ContentRequestRef) error

func (fn ContentRequestProcessorFunc) ProcessContentRequest(ctx context.Context, request ContentRequestRef) error {
	return fn(ctx, request)
}

// EventHandler handles a single domain event
type EventHandler func(ctx context.Context, event DomainEvent) error

// InputSourceHandler returns an InputsAdded handler that processes every added input concurrently
func InputSourceHandler(processor InputSourceProcessor) EventHandler {
	return func(ctx context.Context, event DomainEvent) error {
		added, ok := event.(InputsAdded)
		if !ok {
			return nil
		}
		egp, ctx := errgroup.WithContext(ctx)
		for _, id := range added.InputIDs {
			id := id
			egp.Go(func() error {
				return errors.Wrap(processor.ProcessInputSource(ctx, added.CaseID, id), errors.Internal, "failed to process input %s of case %s", id, added.CaseID)
			})
		}
		return egp.Wait()
	}
}

// ContentRequestHandler returns a RequestsChanged handler that processes every changed request concurrently
func ContentRequestHandler(processor ContentRequestProcessor) EventHandler {
	return func(ctx context.Context, event DomainEvent) error {
		changed, ok := event.(RequestsChanged)
		if !ok {
			return nil
		}
		egp, ctx := errgroup.WithContext(ctx)
		for _, ref := range changed.Requests {
			ref := ref
			egp.Go(func() error {
				return errors.Wrap(processor.ProcessContentRequest(ctx, ref), errors.Internal, "failed to process request %s of content %s", ref.RequestID, ref.ContentID)
			})
		}
		return egp.Wait()
	}
}

// Dispatcher routes domain events to the handlers registered for their kind
type Dispatcher struct {
	handlers *safe.Map[[]EventHandler]
	logger   Logger
}

// NewDispatcher creates a dispatcher without any handlers. A nil logger discards logs.
func NewDispatcher(logger Logger) *Dispatcher {
	if logger == nil {
		logger = NopLogger()
	}
	return &Dispatcher{
		handlers: safe.NewMap(map[string][]EventHandler{}),
		logger:   logger,
	}
}

// On registers a handler for the event kind. Handlers of the same kind run in registration order.
func (d *Dispatcher) On(kind EventKind, handler EventHandler) {
	d.handlers.SetFunc(string(kind), func(handlers []EventHandler) []EventHandler {
		return append(handlers, handler)
	})
}

// Kinds returns the event kinds that have handlers
func (d *Dispatcher) Kinds() []string {
	return d.handlers.Keys()
}

// Dispatch hands every event to its handlers. Events are dispatched independently and concurrently: a failing
// event doesn't cancel the others. The first handler error is returned once every event has been handled.
func (d *Dispatcher) Dispatch(ctx context.Context, events []DomainEvent) error {
	var egp errgroup.Group
	for _, event := range events {
		event := event
		handlers, ok := d.handlers.Lookup(string(event.Kind()))
		if !ok {
			d.logger.Debug(ctx, "no handlers registered for event", map[string]any{
				"kind":        event.Kind(),
				"document_id": event.DocumentID(),
			})
			continue
		}
		egp.Go(func() error {
			for _, handler := range handlers {
				if err := handler(ctx, event); err != nil {
					d.logger.Error(ctx, "event handler failure", err, map[string]any{
						"kind":        event.Kind(),
						"document_id": event.DocumentID(),
					})
					return err
				}
			}
			return nil
		})
	}
	return egp.Wait()
}
