package casewatch

import (
	"context"
	"time"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/util"
	"github.com/segmentio/ksuid"
)

// Trigger is a single write on a case document as delivered by the write trigger
type Trigger struct {
	DocumentID string    `json:"documentId" validate:"required"`
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
	Before     Value     `json:"before"`
	After      Value     `json:"after"`
}

// DocumentTrigger builds a trigger out of before/after documents. nil documents are absent.
func DocumentTrigger(documentID, eventID string, occurredAt time.Time, before, after *Document) Trigger {
	return Trigger{
		DocumentID: documentID,
		EventID:    eventID,
		OccurredAt: occurredAt,
		Before:     before.Snapshot(),
		After:      after.Snapshot(),
	}
}

type kindHandler struct {
	kind    EventKind
	handler EventHandler
}

// Service turns write triggers into domain events: it diffs the snapshots, runs the detectors, broadcasts
// the detected events and dispatches them to the registered handlers.
type Service struct {
	config      Config
	classifier  Classifier
	detectors   []Detector
	handlers    []kindHandler
	interpreter *Interpreter
	dispatcher  *Dispatcher
	stream      Stream
	metrics     *Metrics
	logger      Logger
}

// New creates a service from the config
func New(config Config, opts ...Opt) (*Service, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		config:     config,
		classifier: NewClassifier(config.MaxDepth),
		detectors:  DefaultDetectors(config.Fields),
	}
	for _, o := range opts {
		o(s)
	}
	for _, script := range config.Scripts {
		detector, err := ScriptDetector(script)
		if err != nil {
			return nil, err
		}
		s.detectors = append(s.detectors, detector)
	}
	if s.logger == nil {
		logger, err := NewLogger(config.LogLevel, map[string]any{
			"collection": config.Collection,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.Internal, "failed to create logger")
		}
		s.logger = logger
	}
	if s.stream == nil {
		s.stream = NewStream()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.interpreter = NewInterpreter(s.logger, s.detectors...)
	s.interpreter.metrics = s.metrics
	s.dispatcher = NewDispatcher(s.logger)
	for _, h := range s.handlers {
		s.dispatcher.On(h.kind, h.handler)
	}
	return s, nil
}

// Config returns the service config
func (s *Service) Config() Config {
	return s.config
}

// Logger returns the service logger
func (s *Service) Logger() Logger {
	return s.logger
}

// Stream returns the stream detected events are broadcast on
func (s *Service) Stream() Stream {
	return s.stream
}

// Metrics returns the service metrics
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Dispatcher returns the dispatcher detected events are handed to
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Diff builds the document change of the trigger
func (s *Service) Diff(trigger Trigger) *DocumentChange {
	return s.classifier.BuildDocumentChange(trigger.DocumentID, trigger.EventID, trigger.OccurredAt, trigger.Before, trigger.After)
}

// Detect builds the document change of the trigger and runs the detectors against it
func (s *Service) Detect(ctx context.Context, trigger Trigger) (*DocumentChange, []DomainEvent, error) {
	trigger, err := s.normalize(trigger)
	if err != nil {
		return nil, nil, err
	}
	change := s.Diff(trigger)
	return change, s.interpreter.DetectEvents(ctx, change), nil
}

// Handle detects the domain events of the trigger, broadcasts them and dispatches them to the registered handlers.
// The detected events are returned even when a handler fails.
func (s *Service) Handle(ctx context.Context, trigger Trigger) ([]DomainEvent, error) {
	start := time.Now()
	change, events, err := s.Detect(ctx, trigger)
	if err != nil {
		return nil, err
	}
	tags := map[string]any{
		"document_id": change.DocumentID,
		"event_id":    change.EventID,
		"change_type": change.ChangeType,
		"events":      len(events),
	}
	s.logger.Debug(ctx, "document change analyzed", tags)
	for _, event := range events {
		s.stream.Broadcast(ctx, event)
	}
	err = s.dispatcher.Dispatch(ctx, events)
	s.metrics.observeTrigger(change, events, time.Since(start).Seconds())
	if err != nil {
		s.metrics.observeDispatchFailure()
		s.logger.Error(ctx, "failed to dispatch events", err, tags)
		return events, err
	}
	return events, nil
}

// Wait blocks until every stream subscription has exited
func (s *Service) Wait() error {
	return s.stream.Wait()
}

func (s *Service) normalize(trigger Trigger) (Trigger, error) {
	if err := util.ValidateStruct(trigger); err != nil {
		return trigger, errors.Wrap(err, errors.Validation, "invalid trigger")
	}
	if trigger.EventID == "" {
		trigger.EventID = ksuid.New().String()
	}
	if trigger.OccurredAt.IsZero() {
		trigger.OccurredAt = time.Now()
	}
	return trigger, nil
}
