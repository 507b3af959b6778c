package scenario

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/project"
)

// Extract reads the scenario list stored under key. A missing key yields
// no scenarios. Values are assumed to have passed schema validation.
func Extract(cfg *project.Config, key string) ([]Scenario, error) {
	if !cfg.IsSet(key) {
		return nil, nil
	}
	return Decode(cfg.Get(key))
}

// Decode converts a parsed scenario list into Scenario values.
func Decode(raw any) ([]Scenario, error) {
	if raw == nil {
		return nil, nil
	}

	var defs []Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &defs,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("cannot decode scenarios: %v", err)).WithCause(err)
	}

	scenarios := make([]Scenario, len(defs))
	for i, d := range defs {
		scenarios[i] = New(i, d)
	}
	return scenarios, nil
}
