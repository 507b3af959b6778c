package configspec

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
)

func TestJSONSchema(t *testing.T) {
	item := Annotate(NewComposite(), "Machine", "").
		Set("host", NewString()).
		Set("port", NewInteger(22, 2222)).
		Require("host")
	list := NewArray(item)

	s := JSONSchema(list)
	if s.Type != "array" || s.Items == nil {
		t.Fatalf("expected array with items, got %+v", s)
	}
	items := s.Items
	if items.Type != "object" || items.Title != "Machine" {
		t.Errorf("unexpected item schema %+v", items)
	}
	if len(items.Required) != 1 || items.Required[0] != "host" {
		t.Errorf("unexpected required %v", items.Required)
	}
	if items.AdditionalProperties != jsonschema.FalseSchema {
		t.Error("expected a closed object")
	}
	port, ok := items.Properties.Get("port")
	if !ok || port.Type != "integer" || len(port.Enum) != 2 {
		t.Errorf("unexpected port schema %+v", port)
	}

	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("schema does not marshal: %v", err)
	}
}

func TestJSONSchemaAlternatives(t *testing.T) {
	c := NewComposite().
		Set("name", NewString()).
		Alternative(NewComposite().Set("a", NewString())).
		Alternative(NewComposite().Set("b", NewBoolean()))

	s := JSONSchema(c)
	if len(s.OneOf) != 2 {
		t.Fatalf("expected two alternatives, got %d", len(s.OneOf))
	}
	if s.AdditionalProperties != nil {
		t.Error("expected a composite with alternatives to stay open")
	}
}

func TestDocument(t *testing.T) {
	tree := sampleTree(t)
	doc := Document(tree, "Project")
	if doc.Version != jsonschema.Version || doc.Title != "Project" {
		t.Errorf("unexpected document header %q %q", doc.Version, doc.Title)
	}
	if _, ok := doc.Properties.Get("a"); !ok {
		t.Error("expected registered namespace in the document")
	}
	if doc.AdditionalProperties != nil {
		t.Error("expected the document root to accept host keys")
	}
}
