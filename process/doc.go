// Package process describes commands and runs them as local subprocesses.
//
// Command and Result are shared by every session transport: the local
// transport executes them with Run, the SSH transport renders them with
// ShellLine and executes them on the remote shell.
package process
