// Package dispatch routes command-line invocations to command handlers.
//
// The dispatcher owns the cobra command tree and the error-to-outcome
// mapping: handler successes finalize the emitter, operation failures are
// rendered through it, and argument problems become usage errors carrying
// the distinct exit code.
package dispatch
