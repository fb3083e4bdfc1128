// Package config loads mathcore settings from a YAML file. Every document
// is checked against an embedded JSON Schema before it is applied, so a bad
// key or out-of-range value is reported with its location instead of being
// silently ignored.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/opal-lang/mathcore/core/errors"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://mathcore/config.json"

// Config holds the tunable sizes and switches of a session.
type Config struct {
	Tokens     int    `yaml:"tokens"`      // Capacity of every equation side (default: 60000)
	MaxSpaces  int    `yaml:"max_spaces"`  // Number of equation spaces (default: 200)
	AllocLimit int    `yaml:"alloc_limit"` // Spaces that may hold storage at once, 0 = unlimited
	Partitions int    `yaml:"partitions"`  // Default nintegrate partitions (default: 1000)
	Debug      bool   `yaml:"debug"`       // Debug logging
	Color      string `yaml:"color"`       // auto, always or never
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Tokens:     60000,
		MaxSpaces:  200,
		AllocLimit: 0,
		Partitions: 1000,
		Debug:      false,
		Color:      ColorAuto,
	}
}

// Load reads path and applies it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfig, "cannot read config file", err).
			WithContext("path", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		if me, ok := err.(*errors.MathError); ok {
			me.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse applies a YAML document over the defaults. An empty document yields
// the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrConfig, "invalid YAML", err)
	}
	if doc == nil {
		return cfg, nil
	}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfig, "invalid YAML", err)
	}
	return cfg, nil
}

// Validate checks cfg against the schema. Use it after applying overrides
// that did not come from a file.
func (c *Config) Validate() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrConfig, "cannot encode config", err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.ErrConfig, "cannot encode config", err)
	}
	return validateDoc(doc)
}

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// validateDoc runs the schema over a decoded YAML document. The document is
// passed through JSON first so numbers reach the validator as json.Number.
func validateDoc(doc map[string]interface{}) error {
	schema, err := compiled()
	if err != nil {
		return errors.Wrap(errors.ErrConfig, "config schema does not compile", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrConfig, "config is not representable as JSON", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return errors.Wrap(errors.ErrConfig, "config is not representable as JSON", err)
	}
	if err := schema.Validate(v); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// convertValidationError flattens a schema failure to its leaf causes.
func convertValidationError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errors.Wrap(errors.ErrConfig, "invalid config", err)
	}
	var problems, locations []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			problems = append(problems, fmt.Sprintf("%s: %s", loc, e.Message))
			locations = append(locations, e.KeywordLocation)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return errors.New(errors.ErrConfig, "invalid config: "+strings.Join(problems, "; ")).
		WithContext("keyword", strings.Join(locations, ", "))
}
