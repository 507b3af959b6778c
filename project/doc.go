// Package project provides a read-only view of a parsed project file.
//
// The file may be YAML, JSON or TOML. Plugins read their own top-level
// block from it; relative paths inside the file are resolved against
// WorkingDir.
package project
