package casewatch

import (
	"context"
	"fmt"
	"reflect"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/autom8ter/casewatch/util"
)

// FieldNames are the case document field names the detectors inspect
type FieldNames struct {
	Inputs    string `json:"inputs" validate:"required"`
	InputID   string `json:"inputId" validate:"required"`
	Contents  string `json:"contents" validate:"required"`
	ContentID string `json:"contentId" validate:"required"`
	Requests  string `json:"requests" validate:"required"`
	RequestID string `json:"requestId" validate:"required"`
}

// DefaultFieldNames returns the field names of a case document
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Inputs:    "inputs",
		InputID:   "id",
		Contents:  "contents",
		ContentID: "contentId",
		Requests:  "requests",
		RequestID: "requestId",
	}
}

// DetectorFunc inspects a document change and returns a domain event, or nil if the change doesn't carry one.
// Detectors must not mutate the change.
type DetectorFunc func(change *DocumentChange) DomainEvent

// Detector is a named DetectorFunc
type Detector struct {
	Name   string
	Detect DetectorFunc
}

// InputsAddedDetector detects input sources added to a case. It only fires when the inputs field itself
// was added (its first write): elements appended to an inputs field that already existed are not reported.
func InputsAddedDetector(names FieldNames) Detector {
	return Detector{
		Name: "inputs_added",
		Detect: func(change *DocumentChange) DomainEvent {
			inputs := change.Field(names.Inputs)
			if TypeOf(inputs) != Added {
				return nil
			}
			added := lo.Filter(Elements(inputs), func(elem ChangeNode, _ int) bool {
				return elem.Type() == Added
			})
			if len(added) == 0 {
				return nil
			}
			// one id per added element, empty when the element has no scalar id
			return InputsAdded{
				CaseID: change.DocumentID,
				InputIDs: lo.Map(added, func(elem ChangeNode, _ int) string {
					return stringValue(Field(elem, names.InputID))
				}),
			}
		},
	}
}

// RequestsChangedDetector detects content requests that were added or updated on a case. Removed & unchanged
// contents and requests are ignored.
func RequestsChangedDetector(names FieldNames) Detector {
	relevant := func(node ChangeNode, _ int) bool {
		return !node.Type().In(Removed, Unchanged)
	}
	return Detector{
		Name: "requests_changed",
		Detect: func(change *DocumentChange) DomainEvent {
			contents := change.Field(names.Contents)
			if contents == nil || contents.Type().In(Removed, Unchanged) {
				return nil
			}
			var refs []ContentRequestRef
			for _, content := range lo.Filter(Elements(contents), relevant) {
				contentID := stringValue(Field(content, names.ContentID))
				requests := lo.Filter(Elements(Field(content, names.Requests)), relevant)
				refs = append(refs, lo.Map(requests, func(request ChangeNode, _ int) ContentRequestRef {
					return ContentRequestRef{
						CaseID:    change.DocumentID,
						ContentID: contentID,
						RequestID: stringValue(Field(request, names.RequestID)),
					}
				})...)
			}
			if len(refs) == 0 {
				return nil
			}
			return RequestsChanged{
				CaseID:   change.DocumentID,
				Requests: refs,
			}
		},
	}
}

// DefaultDetectors returns the case detectors in their fixed evaluation order
func DefaultDetectors(names FieldNames) []Detector {
	return []Detector{
		InputsAddedDetector(names),
		RequestsChangedDetector(names),
	}
}

// Interpreter runs detectors against document changes
type Interpreter struct {
	detectors []Detector
	logger    Logger
	metrics   *Metrics
}

// NewInterpreter creates an interpreter that runs the detectors in order. A nil logger discards logs.
func NewInterpreter(logger Logger, detectors ...Detector) *Interpreter {
	if logger == nil {
		logger = NopLogger()
	}
	return &Interpreter{detectors: detectors, logger: logger}
}

// DetectEvents runs every detector in order and returns the events they produced. A detector that
// panics or returns an invalid event is logged and treated as having produced no event.
func (i *Interpreter) DetectEvents(ctx context.Context, change *DocumentChange) []DomainEvent {
	var events []DomainEvent
	for _, d := range i.detectors {
		if event := i.detect(ctx, d, change); event != nil {
			events = append(events, event)
		}
	}
	return events
}

func (i *Interpreter) detect(ctx context.Context, d Detector, change *DocumentChange) (event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			tags := map[string]any{"detector": d.Name}
			if change != nil {
				tags["document_id"] = change.DocumentID
				tags["event_id"] = change.EventID
			}
			i.logger.Error(ctx, "detector failure", fmt.Errorf("%v", r), tags)
			i.metrics.observeDetectorFailure(d.Name)
			event = nil
		}
	}()
	event = d.Detect(change)
	if err := validEvent(event); err != nil {
		tags := map[string]any{"detector": d.Name, "error": err.Error()}
		if change != nil {
			tags["document_id"] = change.DocumentID
		}
		i.logger.Warn(ctx, "detector returned an invalid event", tags)
		i.metrics.observeDetectorFailure(d.Name)
		return nil
	}
	return event
}

// validEvent checks the validate tags of struct events
func validEvent(event DomainEvent) error {
	if event == nil {
		return nil
	}
	rv := reflect.Indirect(reflect.ValueOf(event))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return util.ValidateStruct(rv.Interface())
}

// DetectEvents runs the default case detectors against the change
func DetectEvents(change *DocumentChange) []DomainEvent {
	return NewInterpreter(nil, DefaultDetectors(DefaultFieldNames())...).DetectEvents(context.Background(), change)
}

func stringValue(node ChangeNode) string {
	val := NewValue(node)
	if !val.IsScalar() || val.Kind() == KindNull {
		return ""
	}
	return cast.ToString(val.Interface())
}
