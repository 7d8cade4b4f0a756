package agent

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/wangmol66/ReCoCo/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	GaussianPPOMLP Type = "GaussianPPO-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be unmarshalled.
//
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type
// agentType are deserialized into the concrete type of config.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// TypedConfig wraps a Config to enable a Config to be JSON marshaled
// and unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig returns a new TypedConfig wrapping c
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaller interface. If t
// already holds a Config of the decoded type, fields missing from data
// keep their current values.
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	typeName := t.Type
	if raw, ok := m["Type"]; ok {
		if err := json.Unmarshal(raw, &typeName); err != nil {
			return fmt.Errorf("unmarshalJSON: could not decode agent "+
				"type: %v", err)
		}
	}
	ty, found := registeredTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshalJSON: unregistered agent type %q",
			typeName)
	}

	value := reflect.New(ty)
	if t.Config != nil && reflect.TypeOf(t.Config) == ty {
		value.Elem().Set(reflect.ValueOf(t.Config))
	}
	if raw, ok := m["Config"]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %v", err)
		}
	}

	t.Type = typeName
	t.Config = value.Elem().Interface().(Config)
	return nil
}
