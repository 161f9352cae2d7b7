// Package preflight provides the startup checks the wizard runs before
// serving: filesystem access, session store health, schema availability,
// optional tooling, and remote-service reachability.
//
// These checks run in two contexts:
//   - The wizard daemon calls RunAll at startup. Fatal results abort the
//     process; warnings are logged and the wizard continues.
//   - The CLI "psychds check" and "psychds status" commands use individual
//     check functions to display environment health.
//
// Optional features are gated by their config toggles; a disabled feature
// is skipped at startup but still reported by the status helpers.
package preflight
