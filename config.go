package casewatch

import (
	"encoding/json"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/util"
)

// KVConfig configures the key value store backing the snapshot store
type KVConfig struct {
	// Provider is the registered name of the kv provider (ex: badger)
	Provider string `json:"provider" validate:"required"`
	// Params are passed to the provider when it's opened (ex: storage_path). An empty storage_path runs badger in memory.
	Params map[string]any `json:"params"`
}

// HTTPConfig configures the http trigger endpoint
type HTTPConfig struct {
	Port int `json:"port" validate:"min=0,max=65535"`
}

// Config configures a Service. It's passed explicitly - nothing is read from the process environment.
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`
	// MaxDepth bounds the nesting depth the diff recurses into
	MaxDepth int `json:"maxDepth" validate:"min=0"`
	// Collection is the name of the collection of case documents
	Collection string `json:"collection" validate:"required"`
	// Fields are the case document field names inspected by the detectors
	Fields FieldNames `json:"fields"`
	KV     KVConfig   `json:"kv"`
	HTTP   HTTPConfig `json:"http"`
	// Scripts are javascript detectors run after the case detectors
	Scripts []ScriptConfig `json:"scripts" validate:"dive"`
}

// DefaultConfig returns a config with every default applied
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		MaxDepth:   DefaultMaxDepth,
		Collection: "cases",
		Fields:     DefaultFieldNames(),
		KV: KVConfig{
			Provider: "badger",
			Params:   map[string]any{},
		},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// LoadConfig loads a config from yaml or json bytes. Missing values are defaulted.
func LoadConfig(content []byte) (Config, error) {
	jsonContent, err := util.YAMLToJSON(content)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.Validation, "failed to parse config")
	}
	data := map[string]any{}
	if len(jsonContent) > 0 {
		if err := json.Unmarshal(jsonContent, &data); err != nil {
			return Config{}, errors.Wrap(err, errors.Validation, "failed to parse config")
		}
	}
	cfg := DefaultConfig()
	if err := util.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.Validation, "failed to decode config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the config
func (c Config) Validate() error {
	return errors.Wrap(util.ValidateStruct(c), errors.Validation, "invalid config")
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaults.MaxDepth
	}
	if c.Collection == "" {
		c.Collection = defaults.Collection
	}
	names := defaults.Fields
	if c.Fields.Inputs == "" {
		c.Fields.Inputs = names.Inputs
	}
	if c.Fields.InputID == "" {
		c.Fields.InputID = names.InputID
	}
	if c.Fields.Contents == "" {
		c.Fields.Contents = names.Contents
	}
	if c.Fields.ContentID == "" {
		c.Fields.ContentID = names.ContentID
	}
	if c.Fields.Requests == "" {
		c.Fields.Requests = names.Requests
	}
	if c.Fields.RequestID == "" {
		c.Fields.RequestID = names.RequestID
	}
	if c.KV.Provider == "" {
		c.KV.Provider = defaults.KV.Provider
	}
	if c.KV.Params == nil {
		c.KV.Params = map[string]any{}
	}
}
