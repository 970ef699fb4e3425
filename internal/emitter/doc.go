// Package emitter coordinates all terminal and log output for a run.
//
// The Emitter is the single process-wide coordinator: it owns the verbosity
// mode, the operation state machine, and the render queue whose dedicated
// writer goroutine is the only component allowed to touch the terminal and the
// log sink. A spinner controller animates long-running operations on
// interactive terminals by enqueuing repaint instructions through the same
// queue, which keeps every write in strict enqueue order.
package emitter
