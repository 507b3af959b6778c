// Package validation collects field-level validation errors and reports
// them as a single INVALID_CONFIG AppError.
//
// Struct tag validation (go-playground/validator) is used for runtime
// settings; programmatic collection is used by the configuration
// specification tree when checking project values.
//
// # Struct Tag Validation
//
//	type Settings struct {
//	    Concurrency int    `mapstructure:"concurrency" validate:"min=1"`
//	    Transport   string `mapstructure:"transport" validate:"oneof=ssh local"`
//	}
//	err := validation.New().Struct(settings).Err()
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("remoter[0].script", script)
//	err := v.Err()
package validation
