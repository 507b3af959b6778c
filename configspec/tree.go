package configspec

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/remoter/errors"
)

// Delimiter separates path segments.
const Delimiter = "."

// Tree is a configuration specification rooted at a composite node.
// Paths walk Properties only; the empty path addresses the root.
type Tree struct {
	mu     sync.RWMutex
	root   *CompositeNode
	sealed bool
}

// NewTree returns a tree with an empty root.
func NewTree() *Tree {
	return &Tree{root: NewComposite()}
}

// Seal ends the configure phase. Later registrations fail with SPEC_SEALED.
func (t *Tree) Seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (t *Tree) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

// Contains reports whether every segment of path resolves.
func (t *Tree) Contains(path string) bool {
	_, ok := t.Get(path)
	return ok
}

// Get resolves path fully.
func (t *Tree) Get(path string) (Node, bool) {
	node, _, ok := t.nearest(path)
	return node, ok
}

// GetNearest walks path from the root and returns the last node reached
// together with the unresolved suffix of path. The suffix is empty only
// when every segment resolves; an unresolved empty segment, as in "a.",
// yields the bare delimiter.
func (t *Tree) GetNearest(path string) (Node, string) {
	node, rest, _ := t.nearest(path)
	return node, rest
}

func (t *Tree) nearest(path string) (Node, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	segments := splitPath(path)
	node, resolved := resolve(t.root, segments)
	if resolved == len(segments) {
		return node, "", true
	}

	suffix := path[len(strings.Join(segments[:resolved], Delimiter)):]
	if resolved > 0 {
		suffix = strings.TrimPrefix(suffix, Delimiter)
	}
	if suffix == "" {
		suffix = Delimiter
	}
	return node, suffix, false
}

// Composite returns the node at path if it is a composite.
func (t *Tree) Composite(path string) (*CompositeNode, bool) {
	return lookup[*CompositeNode](t, path)
}

// List returns the node at path if it is an array.
func (t *Tree) List(path string) (*ArrayNode, bool) {
	return lookup[*ArrayNode](t, path)
}

// String returns the node at path if it is a string leaf.
func (t *Tree) String(path string) (*StringNode, bool) {
	return lookup[*StringNode](t, path)
}

// Boolean returns the node at path if it is a boolean leaf.
func (t *Tree) Boolean(path string) (*BooleanNode, bool) {
	return lookup[*BooleanNode](t, path)
}

// Integer returns the node at path if it is an integer leaf.
func (t *Tree) Integer(path string) (*IntegerNode, bool) {
	return lookup[*IntegerNode](t, path)
}

func lookup[N Node](t *Tree, path string) (N, bool) {
	var zero N
	node, ok := t.Get(path)
	if !ok {
		return zero, false
	}
	typed, ok := node.(N)
	return typed, ok
}

// Register inserts node under root.Properties[namespace]. A namespace can
// be claimed once; the returned Handle is the only way to change it.
func (t *Tree) Register(namespace string, node Node) (*Handle, error) {
	if namespace == "" || strings.Contains(namespace, Delimiter) {
		return nil, errors.InvalidConfig(fmt.Sprintf("invalid specification namespace %q", namespace))
	}
	if node == nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("nil specification for namespace %q", namespace))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return nil, errors.SpecSealed(namespace)
	}
	if _, exists := t.root.Properties[namespace]; exists {
		return nil, errors.SpecConflict(namespace)
	}
	t.root.Set(namespace, node)
	return &Handle{tree: t, namespace: namespace}, nil
}

// Namespaces returns the registered namespaces in sorted order.
func (t *Tree) Namespaces() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root.PropertyNames()
}

// Describe explains what path refers to. For an unresolved path it names
// the closest known ancestor and what that ancestor accepts.
func (t *Tree) Describe(path string) string {
	node, rest := t.GetNearest(path)
	resolvedPath := strings.TrimSuffix(strings.TrimSuffix(path, rest), Delimiter)
	label := resolvedPath
	if label == "" {
		label = "<root>"
	}

	if rest == "" {
		s := fmt.Sprintf("%q is %s", label, article(node.Kind()))
		if d := summary(node); d != "" {
			s += ": " + d
		}
		return s
	}

	missing := strings.SplitN(rest, Delimiter, 2)[0]
	composite, ok := node.(*CompositeNode)
	if !ok {
		return fmt.Sprintf("no option %q under %q; %q is %s and has no options", missing, label, label, article(node.Kind()))
	}
	names := composite.PropertyNames()
	if len(names) == 0 {
		return fmt.Sprintf("no option %q under %q; it accepts no options", missing, label)
	}
	return fmt.Sprintf("no option %q under %q; it accepts [%s]", missing, label, strings.Join(names, " "))
}

// Handle is a registration scoped to one namespace of a tree.
type Handle struct {
	tree      *Tree
	namespace string
}

// Namespace returns the registered namespace.
func (h *Handle) Namespace() string { return h.namespace }

// Node returns the registered subtree.
func (h *Handle) Node() Node {
	h.tree.mu.RLock()
	defer h.tree.mu.RUnlock()
	return h.tree.root.Properties[h.namespace]
}

// Replace swaps the registered subtree. Only allowed before the tree is sealed.
func (h *Handle) Replace(node Node) error {
	if node == nil {
		return errors.InvalidConfig(fmt.Sprintf("nil specification for namespace %q", h.namespace))
	}
	h.tree.mu.Lock()
	defer h.tree.mu.Unlock()
	if h.tree.sealed {
		return errors.SpecSealed(h.namespace)
	}
	h.tree.root.Set(h.namespace, node)
	return nil
}

// Path joins sub-segments under the namespace.
func (h *Handle) Path(sub ...string) string {
	return strings.Join(append([]string{h.namespace}, sub...), Delimiter)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Delimiter)
}

// resolve returns the deepest node reached and how many segments it consumed.
func resolve(root *CompositeNode, segments []string) (Node, int) {
	var current Node = root
	for i, segment := range segments {
		composite, ok := current.(*CompositeNode)
		if !ok {
			return current, i
		}
		next, ok := composite.Property(segment)
		if !ok {
			return current, i
		}
		current = next
	}
	return current, len(segments)
}

func article(k Kind) string {
	switch k {
	case KindComposite:
		return "an object"
	case KindArray, KindInteger:
		return "an " + k.String()
	default:
		return "a " + k.String()
	}
}

func summary(n Node) string {
	m := n.Metadata()
	switch {
	case m.Title != "" && m.Description != "":
		return m.Title + " (" + m.Description + ")"
	case m.Title != "":
		return m.Title
	default:
		return m.Description
	}
}
