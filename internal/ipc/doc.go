// Package ipc exposes the wizard over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and the
// Controller interface the wizard runtime satisfies. The server accepts one
// goroutine per connection; the client dials with a short timeout so CLI
// commands fail fast when the wizard is offline.
//
// Reuse these types when adding new RPC endpoints to keep the protocol
// stable and compatible with existing command implementations.
package ipc
