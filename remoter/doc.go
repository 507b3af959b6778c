// Package remoter distributes a script to remote machines, runs it there
// and collects every machine's output into one local file per scenario.
//
// The plugin registers the shape of its configuration block under the
// "remoter" namespace and contributes the runRemoteExecution task. The
// task extracts scenarios from the project file and hands them to an
// Orchestrator, which runs one isolated pipeline per machine:
//
//	connect -> transfer -> install -> execute -> fetch -> append
//
// Pipelines run concurrently, bounded by a bulkhead shared across
// scenarios. A failing machine never stops its siblings; only the
// inability to create the output file aborts a scenario.
package remoter
