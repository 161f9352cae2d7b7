// Package server exposes the wizard over HTTP for the browser UI. Routes are
// registered with method and path patterns on the standard mux; a small
// middleware chain adds request ids, access logging, and panic recovery.
//
// Errors cross the wire as {"error": "<text>"} with the status derived from
// the services marker: validation and configuration map to 400, not-found to
// 404, gate refusals (conflict) to 409, everything else to 500.
package server
