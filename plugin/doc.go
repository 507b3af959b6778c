// Package plugin defines the contract between the host and its plugins.
//
// A Host drives a fixed lifecycle: every plugin's Configure hook runs
// once with an ExtendedProject that can extend the configuration
// specification; the specification is then sealed and the project file
// is validated against it; finally tasks are collected and run.
package plugin
