// Package cli implements the provmon command-line interface.
//
// Each cobra command is a thin shell around a plain function that takes an
// io.Writer and an *app, so the output can be tested without a terminal.
// The app carries the loaded config, the machine store and the cached
// machine queries; commands build it with loadApp and close it when done.
//
// # Command Structure
//
//	provmon dashboard                       - Interactive TUI (alias: monitor)
//	provmon machines list|show|add|remove   - Manage and inspect machines
//	provmon provider show <m> <p>           - Every field of one provider
//	provmon overview                        - Fleet totals and issues
//	provmon demo-endpoint                   - Serve synthetic provider status
//	provmon version                         - Build information
//
// # Flag Handling
//
// Global flags (--config, --json, --no-color) are defined on the root
// command. With --json every command writes a single JSONEnvelope to
// stdout, errors included, and prompts and spinners are disabled.
package cli
