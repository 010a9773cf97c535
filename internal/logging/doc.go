// Package logging configures slog output for the CLI and pipeline.
//
// Two handler formats are supported: a human-oriented console format used when
// attached to a terminal and a JSON format for log files and scripting. Attr
// helpers keep field construction terse at call sites, and shared field-name
// constants keep pipeline events greppable across packages.
package logging
