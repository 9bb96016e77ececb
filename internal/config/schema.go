package config

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Schema returns a JSON Schema describing config.yaml.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{Type: "string", Description: "Go duration such as 30s or 10m"}
			}
			return nil
		},
	}
	sch := r.Reflect(&Config{})
	sch.Title = "toolchain-install configuration"
	return sch
}

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}

// MarshalYAML renders cfg as a config.yaml document.
func MarshalYAML(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
