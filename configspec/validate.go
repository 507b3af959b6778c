package configspec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/validation"
)

// Validate checks value against the node at path. A path that does not
// resolve fails with PATH_NOT_FOUND and a value of the wrong variant at
// path fails with SCHEMA_MISMATCH. Nested violations are collected and
// returned together as INVALID_CONFIG.
func (t *Tree) Validate(path string, value any) error {
	node, rest := t.GetNearest(path)
	if rest != "" {
		nearest := strings.TrimSuffix(strings.TrimSuffix(path, rest), Delimiter)
		return errors.PathNotFound(path, nearest, rest).WithDetail("hint", t.Describe(path))
	}
	if !sameVariant(node, value) {
		return errors.SchemaMismatch(path, node.Kind().String(), kindOf(value))
	}
	v := validation.New()
	check(v, path, node, value)
	return v.Err()
}

// Validate checks value against node.
func Validate(node Node, value any) error {
	if node == nil {
		return errors.InvalidConfig("no specification to validate against")
	}
	v := validation.New()
	check(v, "", node, value)
	return v.Err()
}

func check(v *validation.Validator, field string, node Node, value any) {
	switch n := node.(type) {
	case *CompositeNode:
		m, ok := asMap(value)
		if !ok {
			mismatch(v, field, n, value)
			return
		}
		checkComposite(v, field, n, m)

	case *ArrayNode:
		items, ok := asSlice(value)
		if !ok {
			mismatch(v, field, n, value)
			return
		}
		if n.Items == nil {
			return
		}
		for i, item := range items {
			check(v, validation.IndexField(field, i), n.Items, item)
		}

	case *StringNode:
		s, ok := value.(string)
		if !ok {
			mismatch(v, field, n, value)
			return
		}
		if !n.Accepts(s) {
			v.AddErrorf(field, "must be one of %s", formatValues(n.ValidValues))
		}

	case *BooleanNode:
		b, ok := value.(bool)
		if !ok {
			mismatch(v, field, n, value)
			return
		}
		if !n.Accepts(b) {
			v.AddErrorf(field, "must be one of %s", formatValues(n.ValidValues))
		}

	case *IntegerNode:
		i, ok := asInt64(value)
		if !ok {
			mismatch(v, field, n, value)
			return
		}
		if !n.Accepts(i) {
			v.AddErrorf(field, "must be one of %s", formatValues(n.ValidValues))
		}
	}
}

func checkComposite(v *validation.Validator, field string, node *CompositeNode, m map[string]any) {
	if len(node.ValidSpecs) == 0 {
		checkProperties(v, field, node, m)
		return
	}

	var closest *validation.Validator
	for _, alt := range node.ValidSpecs {
		trial := validation.New()
		checkComposite(trial, field, merge(node, alt), m)
		if !trial.HasErrors() {
			return
		}
		if closest == nil || len(trial.Errors()) < len(closest.Errors()) {
			closest = trial
		}
	}
	v.AddErrorf(field, "does not match any of the %d accepted shapes", len(node.ValidSpecs))
	v.Merge("", closest)
}

func checkProperties(v *validation.Validator, field string, node *CompositeNode, m map[string]any) {
	for _, name := range node.Required {
		if _, present := m[name]; !present {
			v.AddError(validation.JoinField(field, name), "is required")
		}
	}

	// A composite without properties accepts any keys.
	open := len(node.Properties) == 0

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		child := validation.JoinField(field, key)
		prop, ok := node.Property(key)
		if !ok {
			if !open {
				v.AddErrorf(child, "unknown option; accepted options are [%s]", strings.Join(node.PropertyNames(), " "))
			}
			continue
		}
		check(v, child, prop, m[key])
	}
}

// merge combines a base composite with one of its alternatives.
func merge(base, alt *CompositeNode) *CompositeNode {
	merged := NewComposite()
	merged.Meta = base.Meta
	for name, prop := range base.Properties {
		merged.Set(name, prop)
	}
	for name, prop := range alt.Properties {
		merged.Set(name, prop)
	}
	merged.Require(base.Required...)
	merged.Require(alt.Required...)
	merged.ValidSpecs = append(merged.ValidSpecs, alt.ValidSpecs...)
	return merged
}

// sameVariant reports whether value has the shape of node, ignoring its
// contents.
func sameVariant(node Node, value any) bool {
	switch node.(type) {
	case *CompositeNode:
		_, ok := asMap(value)
		return ok
	case *ArrayNode:
		_, ok := asSlice(value)
		return ok
	case *StringNode:
		_, ok := value.(string)
		return ok
	case *BooleanNode:
		_, ok := value.(bool)
		return ok
	case *IntegerNode:
		_, ok := asInt64(value)
		return ok
	default:
		return false
	}
}

func mismatch(v *validation.Validator, field string, node Node, value any) {
	v.AddErrorf(field, "expected %s, got %s", node.Kind(), kindOf(value))
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func asSlice(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asInt64 accepts every integral representation produced by YAML, JSON and TOML decoders.
func asInt64(value any) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return asInt64(float64(n))
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func kindOf(value any) string {
	if value == nil {
		return "null"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := asInt64(value); ok {
		return "integer"
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func formatValues[T any](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
