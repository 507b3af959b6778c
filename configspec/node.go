package configspec

import (
	"slices"
	"sort"
)

// Kind discriminates the node variants.
type Kind int

const (
	KindComposite Kind = iota + 1
	KindArray
	KindString
	KindBoolean
	KindInteger
)

// String returns the JSON Schema type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindComposite:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// Node is one of *CompositeNode, *ArrayNode, *StringNode, *BooleanNode
// or *IntegerNode. The set is closed.
type Node interface {
	Kind() Kind
	Metadata() *Meta
	isNode()
}

// Meta is the presentation metadata shared by every node.
type Meta struct {
	Title       string
	Description string
}

// Metadata returns the mutable metadata of the node.
func (m *Meta) Metadata() *Meta { return m }

// SetTitle sets the title.
func (m *Meta) SetTitle(title string) { m.Title = title }

// SetDescription sets the description.
func (m *Meta) SetDescription(description string) { m.Description = description }

// Annotate sets title and description on n and returns it.
func Annotate[N Node](n N, title, description string) N {
	meta := n.Metadata()
	meta.Title = title
	meta.Description = description
	return n
}

// CompositeNode describes an object with named properties.
type CompositeNode struct {
	Meta
	// Required lists property names that must be present, without duplicates.
	Required []string
	// Properties maps names to their nodes.
	Properties map[string]Node
	// ValidSpecs are alternative shapes; a value must match one of them
	// when any are declared.
	ValidSpecs []*CompositeNode
}

// NewComposite returns an empty composite node.
func NewComposite() *CompositeNode {
	return &CompositeNode{
		Required:   []string{},
		Properties: map[string]Node{},
		ValidSpecs: []*CompositeNode{},
	}
}

func (*CompositeNode) Kind() Kind { return KindComposite }
func (*CompositeNode) isNode()    {}

// Set adds or replaces the property name.
func (c *CompositeNode) Set(name string, node Node) *CompositeNode {
	if c.Properties == nil {
		c.Properties = map[string]Node{}
	}
	c.Properties[name] = node
	return c
}

// Require marks names as required, keeping declaration order and skipping duplicates.
func (c *CompositeNode) Require(names ...string) *CompositeNode {
	for _, name := range names {
		if !slices.Contains(c.Required, name) {
			c.Required = append(c.Required, name)
		}
	}
	return c
}

// Alternative appends an accepted alternative shape.
func (c *CompositeNode) Alternative(spec *CompositeNode) *CompositeNode {
	c.ValidSpecs = append(c.ValidSpecs, spec)
	return c
}

// Property returns the node of a property.
func (c *CompositeNode) Property(name string) (Node, bool) {
	n, ok := c.Properties[name]
	return n, ok && n != nil
}

// IsRequired reports whether name is required.
func (c *CompositeNode) IsRequired(name string) bool {
	return slices.Contains(c.Required, name)
}

// PropertyNames returns the property names in sorted order.
func (c *CompositeNode) PropertyNames() []string {
	names := make([]string, 0, len(c.Properties))
	for name := range c.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unsatisfiable returns required names that have no property node.
// Nothing enforces this at runtime; it is reported by diagnostics only.
func (c *CompositeNode) Unsatisfiable() []string {
	var missing []string
	for _, name := range c.Required {
		if _, ok := c.Property(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ArrayNode describes a list whose elements all match Items.
type ArrayNode struct {
	Meta
	// Items is nil until set; a nil Items accepts any element.
	Items Node
}

// NewArray returns an array node with the given item shape.
func NewArray(items Node) *ArrayNode {
	return &ArrayNode{Items: items}
}

func (*ArrayNode) Kind() Kind { return KindArray }
func (*ArrayNode) isNode()    {}

// StringNode describes a string leaf.
type StringNode struct {
	Meta
	// ValidValues restricts the value when non-empty.
	ValidValues []string
}

// NewString returns a string node accepting only valid, or any string when none are given.
func NewString(valid ...string) *StringNode {
	return &StringNode{ValidValues: append([]string{}, valid...)}
}

func (*StringNode) Kind() Kind { return KindString }
func (*StringNode) isNode()    {}

// Accepts reports whether v is a legal value.
func (s *StringNode) Accepts(v string) bool {
	return len(s.ValidValues) == 0 || slices.Contains(s.ValidValues, v)
}

// BooleanNode describes a boolean leaf.
type BooleanNode struct {
	Meta
	ValidValues []bool
}

// NewBoolean returns a boolean node.
func NewBoolean(valid ...bool) *BooleanNode {
	return &BooleanNode{ValidValues: append([]bool{}, valid...)}
}

func (*BooleanNode) Kind() Kind { return KindBoolean }
func (*BooleanNode) isNode()    {}

// Accepts reports whether v is a legal value.
func (b *BooleanNode) Accepts(v bool) bool {
	return len(b.ValidValues) == 0 || slices.Contains(b.ValidValues, v)
}

// IntegerNode describes an integer leaf.
type IntegerNode struct {
	Meta
	ValidValues []int64
}

// NewInteger returns an integer node.
func NewInteger(valid ...int64) *IntegerNode {
	return &IntegerNode{ValidValues: append([]int64{}, valid...)}
}

func (*IntegerNode) Kind() Kind { return KindInteger }
func (*IntegerNode) isNode()    {}

// Accepts reports whether v is a legal value.
func (i *IntegerNode) Accepts(v int64) bool {
	return len(i.ValidValues) == 0 || slices.Contains(i.ValidValues, v)
}
