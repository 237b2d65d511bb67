package registry

import (
	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/internal/safe"
	"github.com/autom8ter/casewatch/kv"
)

// KVDBOpener opens a key value database
type KVDBOpener func(params map[string]any) (kv.DB, error)

var registeredOpeners = safe.NewMap(map[string]KVDBOpener{})

// Register registers a KVDBOpener opener by name
func Register(name string, opener KVDBOpener) {
	registeredOpeners.Set(name, opener)
}

// Open opens a registered key value database
func Open(name string, params map[string]any) (kv.DB, error) {
	if !registeredOpeners.Exists(name) {
		return nil, errors.New(errors.NotFound, "%s is not registered", name)
	}
	db, err := registeredOpeners.Get(name)(params)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to open %s", name)
	}
	return db, nil
}
