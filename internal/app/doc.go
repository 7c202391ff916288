// Package app wires application dependencies for the CLI.
//
// It loads the YAML run configuration, builds the logger, the keyring and
// the metrics collector, and turns a Config into a ready simulation session.
package app
