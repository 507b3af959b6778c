package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/remoter/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("script", "run.py")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("script", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("script", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"in range", 22, false},
		{"below", 0, true},
		{"above", 70000, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().Range("port", tc.value, 1, 65535)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("Range(%d) errors = %v, wantErr %v", tc.value, v.Errors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorMin(t *testing.T) {
	if New().Min("concurrency", 1, 1).HasErrors() {
		t.Error("expected no error at the minimum")
	}
	if !New().Min("concurrency", 0, 1).HasErrors() {
		t.Error("expected error below the minimum")
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("transport", "ssh", []string{"ssh", "local"})
	if v.HasErrors() {
		t.Error("expected no error for valid oneOf value")
	}

	v2 := New()
	v2.OneOf("transport", "telnet", []string{"ssh", "local"})
	if !v2.HasErrors() {
		t.Error("expected error for invalid oneOf value")
	}

	v3 := New()
	v3.OneOf("transport", "", []string{"ssh"})
	if v3.HasErrors() {
		t.Error("expected no error for empty oneOf value")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(false, "field", "custom error")
	if !v.HasErrors() {
		t.Fatal("expected error for false condition")
	}
	if v.Errors()[0].Message != "custom error" {
		t.Errorf("expected 'custom error', got %q", v.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Required("name", "x").Validate() != nil {
		t.Error("expected nil for valid input")
	}

	v := New()
	v.Required("script", "")
	v.AddErrorf("machines[0].host", "unexpected %s", "value")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors in details, got %v", appErr.Details["fields"])
	}
	if !strings.Contains(appErr.Message, "script: is required") ||
		!strings.Contains(appErr.Message, "machines[0].host: unexpected value") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestValidatorErr(t *testing.T) {
	if err := New().Err(); err != nil {
		t.Errorf("expected nil interface, got %v", err)
	}
	if err := New().Required("x", "").Err(); err == nil {
		t.Error("expected error")
	}
}

func TestValidatorMerge(t *testing.T) {
	inner := New()
	inner.AddError("host", "is required")
	inner.AddError("", "must be an object")

	outer := New()
	outer.Merge("machines[1]", inner)
	got := outer.Errors()
	if got[0].Field != "machines[1].host" || got[1].Field != "machines[1]" {
		t.Errorf("unexpected merged fields %v", got)
	}
}

func TestJoinField(t *testing.T) {
	tests := []struct {
		parent, child, want string
	}{
		{"", "remoter", "remoter"},
		{"remoter", "", "remoter"},
		{"remoter", "[0]", "remoter[0]"},
		{"remoter[0]", "output", "remoter[0].output"},
	}
	for _, tc := range tests {
		if got := JoinField(tc.parent, tc.child); got != tc.want {
			t.Errorf("JoinField(%q, %q) = %q, want %q", tc.parent, tc.child, got, tc.want)
		}
	}
	if got := IndexField("machines", 3); got != "machines[3]" {
		t.Errorf("IndexField = %q", got)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	result := v.Required("name", "John").Min("age", 25, 18)
	if result != v {
		t.Error("expected chaining to return same validator")
	}
}

func TestStructValidateValid(t *testing.T) {
	type Settings struct {
		Transport   string `mapstructure:"transport" validate:"required,oneof=ssh local"`
		Concurrency int    `mapstructure:"concurrency" validate:"min=1"`
	}

	if err := New().Struct(Settings{Transport: "ssh", Concurrency: 4}).Err(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	type Logging struct {
		Level string `mapstructure:"level" validate:"required"`
	}
	type Settings struct {
		Transport   string  `mapstructure:"transport" validate:"required,oneof=ssh local"`
		Concurrency int     `mapstructure:"concurrency" validate:"min=1"`
		Logging     Logging `mapstructure:"logging"`
	}

	err := New().Struct(Settings{Transport: "telnet"}).Err()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"transport: must be one of: ssh local", "concurrency: must be at least 1", "logging.level: is required"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("CommandTimeout"); got != "command_timeout" {
		t.Errorf("toSnakeCase = %q", got)
	}
}
