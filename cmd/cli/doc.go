// Package cli constructs the gitkeeper command-line interface. It wires the
// Cobra command hierarchy to the Viper configuration loader, the zap logger and
// the repository services, and holds the repository lock around every command
// that touches the working directory.
package cli
