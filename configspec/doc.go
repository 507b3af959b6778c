// Package configspec describes the expected shape of project configuration
// as a tree of typed nodes.
//
// A Tree is extended once, while plugins are being configured, by
// registering a subtree under a namespace of its root. After Seal the
// tree is read-only and serves two purposes: resolving dotted paths
// (with nearest-ancestor fallback for diagnostics) and validating parsed
// configuration values.
//
//	tree := configspec.NewTree()
//	handle, err := tree.Register("remoter", configspec.NewArray(scenarioNode))
//	tree.Seal()
//
//	node, rest := tree.GetNearest("remoter.machines")
//	err = tree.Validate("remoter", project.Get("remoter"))
package configspec
