package casewatch

// EventKind names a domain event
type EventKind string

const (
	// InputsAddedKind is emitted when a case's inputs field is written for the first time with new inputs
	InputsAddedKind EventKind = "InputsAdded"
	// RequestsChangedKind is emitted when content requests were added to or updated on a case
	RequestsChangedKind EventKind = "RequestsChanged"
)

// DomainEvent is a business event recognized in a document change
type DomainEvent interface {
	// Kind returns the kind of the event
	Kind() EventKind
	// DocumentID returns the id of the document the event was detected on
	DocumentID() string
}

// InputsAdded carries the ids of input sources that were added to a case
type InputsAdded struct {
	CaseID   string   `json:"caseId" validate:"required"`
	InputIDs []string `json:"inputIds" validate:"required,min=1"`
}

func (e InputsAdded) Kind() EventKind    { return InputsAddedKind }
func (e InputsAdded) DocumentID() string { return e.CaseID }

// ContentRequestRef identifies a request of a content of a case
type ContentRequestRef struct {
	CaseID    string `json:"caseId" validate:"required"`
	ContentID string `json:"contentId"`
	RequestID string `json:"requestId"`
}

// RequestsChanged carries the content requests that were added or updated on a case
type RequestsChanged struct {
	CaseID   string              `json:"caseId" validate:"required"`
	Requests []ContentRequestRef `json:"requests" validate:"required,min=1,dive"`
}

func (e RequestsChanged) Kind() EventKind    { return RequestsChangedKind }
func (e RequestsChanged) DocumentID() string { return e.CaseID }

// EventEnvelope wraps a domain event with its kind for serialization
type EventEnvelope struct {
	Kind  EventKind   `json:"kind"`
	Event DomainEvent `json:"event"`
}

// Envelope wraps the event in an EventEnvelope
func Envelope(e DomainEvent) EventEnvelope {
	return EventEnvelope{Kind: e.Kind(), Event: e}
}
