package casewatch

// Opt is an option for configuring a Service
type Opt func(s *Service)

// WithLogger sets the service logger. By default a zap logger is built at the configured log level.
func WithLogger(logger Logger) Opt {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDetectors replaces the default detectors
func WithDetectors(detectors ...Detector) Opt {
	return func(s *Service) {
		s.detectors = append([]Detector{}, detectors...)
	}
}

// WithStream sets the stream detected events are broadcast on
func WithStream(stream Stream) Opt {
	return func(s *Service) {
		s.stream = stream
	}
}

// WithMetrics sets the prometheus metrics the service records to. By default every service gets its own.
func WithMetrics(metrics *Metrics) Opt {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithHandler registers an event handler for the event kind
func WithHandler(kind EventKind, handler EventHandler) Opt {
	return func(s *Service) {
		s.handlers = append(s.handlers, kindHandler{kind: kind, handler: handler})
	}
}

// WithInputSourceProcessor processes every input source reported by an InputsAdded event
func WithInputSourceProcessor(processor InputSourceProcessor) Opt {
	return WithHandler(InputsAddedKind, InputSourceHandler(processor))
}

// WithContentRequestProcessor processes every content request reported by a RequestsChanged event
func WithContentRequestProcessor(processor ContentRequestProcessor) Opt {
	return WithHandler(RequestsChangedKind, ContentRequestHandler(processor))
}
