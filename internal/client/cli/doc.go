// Package cli provides the interactive media vault upload client.
//
// It wires configuration, the local upload history database, the store
// HTTP client and the upload queue behind a small REPL. Typical flow:
// queue files or directory trees, review the queue, then start the
// transfer and watch tasks reach a terminal state.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
