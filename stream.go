package casewatch

import (
	"context"

	"github.com/autom8ter/machine/v4"
)

// AllEvents is the stream channel every detected event is broadcast on, in addition to the channel named after its kind
const AllEvents = "*"

// Stream broadcasts detected domain events to subscribers
type Stream interface {
	// Broadcast publishes the event on its kind's channel and on AllEvents
	Broadcast(ctx context.Context, event DomainEvent)
	// Pull subscribes fn to the channel in the background until ctx is done or fn returns false
	Pull(ctx context.Context, channel string, fn func(DomainEvent) (bool, error)) error
	// Wait blocks until every subscription has exited
	Wait() error
}

type defaultStream struct {
	machine machine.Machine
}

// NewStream returns an in-process event stream
func NewStream() Stream {
	return defaultStream{machine: machine.New()}
}

func (d defaultStream) Broadcast(ctx context.Context, event DomainEvent) {
	d.machine.Publish(ctx, machine.Message{
		Channel: string(event.Kind()),
		Body:    event,
	})
	d.machine.Publish(ctx, machine.Message{
		Channel: AllEvents,
		Body:    event,
	})
}

func (d defaultStream) Pull(ctx context.Context, channel string, fn func(DomainEvent) (bool, error)) error {
	d.machine.Go(ctx, func(ctx context.Context) error {
		return d.machine.Subscribe(ctx, channel, func(ctx context.Context, msg machine.Message) (bool, error) {
			event, ok := msg.Body.(DomainEvent)
			if !ok {
				return true, nil
			}
			return fn(event)
		})
	})
	return nil
}

func (d defaultStream) Wait() error {
	return d.machine.Wait()
}
