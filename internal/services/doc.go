// Package services defines shared utilities consumed by the wizard manager
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, wizard steps, and request
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures classify
//     consistently (validation vs configuration vs external tool) wherever
//     they are handled.
//
// Use these helpers when wiring new wizard logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
