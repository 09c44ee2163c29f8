// Package logging provides file-based structured logging with rotation for the
// Hirmes client. Logs are JSON lines written to ~/.hirmes/logs/client.log.
//
// The interactive TUI owns the terminal, so it logs to the file only; plain CLI
// commands may mirror logs to stderr when --debug is set.
//
// Viewer tails and follows that file for `hirmes logs`.
package logging
