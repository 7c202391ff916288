// Package commands defines the chalresp CLI and wires dependencies for subcommands.
//
// Commands
//
//   - generate             Run a simulation and write labeled records
//   - summary              Run a simulation and print outcome counts per label
//   - keyring init         Provision principals into an encrypted keyring
//   - keyring fingerprint  Print the fingerprints of keyring principals
//
// # Implementation
//
// The root command loads the YAML run configuration (or the defaults),
// applies flag overrides and builds the app context before any subcommand
// runs, so handlers share one logger, keyring and metrics collector.
package commands
