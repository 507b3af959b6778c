// Package scenario holds the immutable values a remote execution run is
// built from, decoded from the plugin's block of the project file.
package scenario
