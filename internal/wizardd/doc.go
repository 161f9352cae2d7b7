// Package wizardd coordinates the long-running wizard process.
//
// It wires configuration, the session store, the wizard manager, the HTTP
// API server, and the browser launcher into a single lifecycle with
// flock-based locking to prevent multiple instances. Startup runs the
// preflight checks once per process; required failures abort, optional ones
// are logged and the wizard continues.
//
// Keep orchestration logic here: step semantics live in the wizard package
// and transport concerns in the server and ipc packages.
package wizardd
