package casewatch

import (
	"encoding/json"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/util"
	"github.com/dop251/goja"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cast"
)

// ScriptConfig configures a javascript detector. The script must declare a function named detect that takes the
// document change (json encoded) & its flat list of field ops and returns null or an event payload object.
//
//	function detect(change, ops) {
//	  const name = change.fields.name
//	  if (!name || name.changeType !== "updated") return null
//	  return {from: name.oldValue, to: name.newValue}
//	}
type ScriptConfig struct {
	Name   string    `json:"name" validate:"required"`
	Kind   EventKind `json:"kind" validate:"required"`
	Script string    `json:"script" validate:"required"`
}

// ScriptEvent is a domain event produced by a javascript detector
type ScriptEvent struct {
	EventKind EventKind      `json:"kind" validate:"required"`
	CaseID    string         `json:"caseId" validate:"required"`
	Payload   map[string]any `json:"payload"`
}

func (e ScriptEvent) Kind() EventKind    { return e.EventKind }
func (e ScriptEvent) DocumentID() string { return e.CaseID }

const scriptFunction = "detect"

// ScriptDetector compiles a javascript detector. Every detection runs in a fresh vm.
// Script exceptions are raised as panics so the interpreter logs them like any other detector failure.
func ScriptDetector(cfg ScriptConfig) (Detector, error) {
	if err := ValidateScriptConfig(cfg); err != nil {
		return Detector{}, err
	}
	program, err := goja.Compile(cfg.Name, cfg.Script, false)
	if err != nil {
		return Detector{}, errors.Wrap(err, errors.Validation, "failed to compile script %s", cfg.Name)
	}
	if _, err := scriptVM(program); err != nil {
		return Detector{}, errors.Wrap(err, errors.Validation, "invalid script %s", cfg.Name)
	}
	return Detector{
		Name: cfg.Name,
		Detect: func(change *DocumentChange) DomainEvent {
			if change == nil {
				return nil
			}
			vm, err := scriptVM(program)
			if err != nil {
				panic(err)
			}
			ops := change.Ops()
			if ops == nil {
				ops = []FieldOp{}
			}
			detect, _ := goja.AssertFunction(vm.Get(scriptFunction))
			result, err := detect(goja.Undefined(), vm.ToValue(toGeneric(change)), vm.ToValue(toGeneric(ops)))
			if err != nil {
				panic(errors.Wrap(err, errors.Internal, "script %s failed", cfg.Name))
			}
			if goja.IsUndefined(result) || goja.IsNull(result) {
				return nil
			}
			return ScriptEvent{
				EventKind: cfg.Kind,
				CaseID:    change.DocumentID,
				Payload:   cast.ToStringMap(result.Export()),
			}
		},
	}, nil
}

// ValidateScriptConfig validates the script config
func ValidateScriptConfig(cfg ScriptConfig) error {
	if cfg.Kind == InputsAddedKind || cfg.Kind == RequestsChangedKind {
		return errors.New(errors.Validation, "script %s: event kind %s is reserved", cfg.Name, cfg.Kind)
	}
	return errors.Wrap(util.ValidateStruct(cfg), errors.Validation, "invalid script")
}

func scriptVM(program *goja.Program) (*goja.Runtime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := vm.Set("ksuid", func() string { return ksuid.New().String() }); err != nil {
		return nil, err
	}
	if _, err := vm.RunProgram(program); err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(vm.Get(scriptFunction)); !ok {
		return nil, errors.New(errors.Validation, "script doesn't declare a %s function", scriptFunction)
	}
	return vm, nil
}

// toGeneric converts the value into plain maps & slices through its json encoding
func toGeneric(value any) any {
	bits, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	var generic any
	if err := json.Unmarshal(bits, &generic); err != nil {
		panic(err)
	}
	return generic
}
