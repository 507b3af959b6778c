package configspec

import (
	"github.com/invopop/jsonschema"
)

// JSONSchema renders node as a JSON Schema. Composites without
// alternatives are closed; the alternatives of a composite become oneOf.
func JSONSchema(node Node) *jsonschema.Schema {
	if node == nil {
		return jsonschema.TrueSchema
	}

	meta := node.Metadata()
	s := &jsonschema.Schema{
		Type:        node.Kind().String(),
		Title:       meta.Title,
		Description: meta.Description,
	}

	switch n := node.(type) {
	case *CompositeNode:
		s.Properties = jsonschema.NewProperties()
		for _, name := range n.PropertyNames() {
			prop, _ := n.Property(name)
			s.Properties.Set(name, JSONSchema(prop))
		}
		if len(n.Required) > 0 {
			s.Required = append([]string{}, n.Required...)
		}
		for _, alt := range n.ValidSpecs {
			s.OneOf = append(s.OneOf, JSONSchema(alt))
		}
		if len(n.ValidSpecs) == 0 && len(n.Properties) > 0 {
			s.AdditionalProperties = jsonschema.FalseSchema
		}
	case *ArrayNode:
		if n.Items != nil {
			s.Items = JSONSchema(n.Items)
		}
	case *StringNode:
		s.Enum = enum(n.ValidValues)
	case *BooleanNode:
		s.Enum = enum(n.ValidValues)
	case *IntegerNode:
		s.Enum = enum(n.ValidValues)
	}
	return s
}

// Document renders the whole tree as a standalone schema document.
func Document(t *Tree, title string) *jsonschema.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := JSONSchema(t.root)
	s.Version = jsonschema.Version
	// Project files also carry keys owned by the host.
	s.AdditionalProperties = nil
	if title != "" {
		s.Title = title
	}
	return s
}

func enum[T any](values []T) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
