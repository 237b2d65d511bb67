// Package http serves a casewatch Service over http: document-written triggers are posted to it and detected
// domain events are streamed back over a websocket.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/firestore"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	// EventIDHeader carries the id of the trigger event (cloudevents binary mode)
	EventIDHeader = "ce-id"
	// EventTimeHeader carries the time the trigger event occurred (RFC3339)
	EventTimeHeader = "ce-time"
)

// TriggerResult is the response to a posted trigger
type TriggerResult struct {
	DocumentID string                    `json:"documentId"`
	Events     []casewatch.EventEnvelope `json:"events"`
	Error      *errors.Error             `json:"error,omitempty"`
}

// DetectResult is the response to a detect request
type DetectResult struct {
	Change *casewatch.DocumentChange `json:"change"`
	Events []casewatch.EventEnvelope `json:"events"`
}

// Server serves a casewatch Service over http
type Server struct {
	svc      *casewatch.Service
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a server for the service and registers its routes:
//
//	POST /v1/triggers/{collection}/{documentID} (document-written payload in request body)
//	POST /v1/detect (trigger json in request body, nothing is dispatched)
//	GET  /v1/events?kind={kind} (websocket feed of detected events)
//	GET  /metrics (prometheus metrics)
func New(svc *casewatch.Service, mwares ...mux.MiddlewareFunc) *Server {
	s := &Server{
		svc:      svc,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	s.router.Use(append([]mux.MiddlewareFunc{s.requestLogger}, mwares...)...)
	s.router.HandleFunc("/v1/triggers/{collection}/{documentID}", s.triggerHandler()).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/detect", s.detectHandler()).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/events", s.eventsHandler()).Methods(http.MethodGet)
	s.router.Handle("/metrics", svc.Metrics().Handler()).Methods(http.MethodGet)
	return s
}

// Handler returns the http handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves http on the port until the context is cancelled
func (s *Server) Serve(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: s.router,
	}
	egp, ctx := errgroup.WithContext(ctx)
	egp.Go(func() error {
		s.svc.Logger().Info(ctx, "starting http server", map[string]any{"port": port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, errors.Internal, "http server failure")
		}
		return nil
	})
	egp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return egp.Wait()
}

func (s *Server) triggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if vars["collection"] != s.svc.Config().Collection {
			httpError(w, errors.New(errors.NotFound, "collection %s is not watched", vars["collection"]))
			return
		}
		var payload json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpError(w, errors.Wrap(err, errors.Validation, "failed to decode trigger payload"))
			return
		}
		event, err := firestore.ParseEvent(payload)
		if err != nil {
			httpError(w, err)
			return
		}
		event.DocumentID = vars["documentID"]
		var occurredAt time.Time
		if ceTime := r.Header.Get(EventTimeHeader); ceTime != "" {
			occurredAt, err = time.Parse(time.RFC3339Nano, ceTime)
			if err != nil {
				httpError(w, errors.Wrap(err, errors.Validation, "invalid %s header", EventTimeHeader))
				return
			}
		}
		events, err := s.svc.Handle(r.Context(), event.Trigger(r.Header.Get(EventIDHeader), occurredAt))
		if err != nil && events == nil {
			httpError(w, err)
			return
		}
		result := TriggerResult{
			DocumentID: event.DocumentID,
			Events:     envelopes(events),
		}
		status := http.StatusOK
		if err != nil {
			result.Error = errors.Extract(err).RemoveError()
			status = statusOf(err)
		}
		writeJSON(w, status, result)
	}
}

func (s *Server) detectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var trigger casewatch.Trigger
		if err := json.NewDecoder(r.Body).Decode(&trigger); err != nil {
			httpError(w, errors.Wrap(err, errors.Validation, "failed to decode trigger"))
			return
		}
		change, events, err := s.svc.Detect(r.Context(), trigger)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DetectResult{
			Change: change,
			Events: envelopes(events),
		})
	}
}

func (s *Server) eventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := casewatch.AllEvents
		if kind := r.URL.Query().Get("kind"); kind != "" {
			channel = kind
		}
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.svc.Logger().Error(r.Context(), "failed to upgrade events request", err, map[string]any{
				"request.path": r.URL.Path,
			})
			return
		}
		defer conn.Close()
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		if err := s.svc.Stream().Pull(ctx, channel, func(event casewatch.DomainEvent) (bool, error) {
			if err := conn.WriteJSON(casewatch.Envelope(event)); err != nil {
				conn.Close()
				return false, nil
			}
			return true, nil
		}); err != nil {
			return
		}
		// the feed is write-only: reading only detects the client going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (s *Server) requestLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		s.svc.Logger().Debug(r.Context(), "request served", map[string]any{
			"request.method": r.Method,
			"request.path":   r.URL.Path,
			"request.vars":   mux.Vars(r),
			"duration":       float64(time.Since(start).Microseconds()) / float64(1000),
		})
	})
}

func envelopes(events []casewatch.DomainEvent) []casewatch.EventEnvelope {
	result := make([]casewatch.EventEnvelope, 0, len(events))
	for _, e := range events {
		result = append(result, casewatch.Envelope(e))
	}
	return result
}

func statusOf(err error) int {
	if code := errors.Extract(err).Code; code >= 400 && code < 600 {
		return int(code)
	}
	return http.StatusInternalServerError
}

func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusOf(err))
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}
