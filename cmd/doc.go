// Package cmd implements the command-line interface for gigacal.
//
// This package provides the following commands:
//   - run: Start the Telegram bot and poll for updates
//   - version: Display version information
//
// The run command is the default command when no subcommand is specified.
package cmd
