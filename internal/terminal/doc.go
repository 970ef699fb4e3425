// Package terminal probes the capabilities of the process output streams.
//
// The probe runs once at startup and produces a read-only Descriptor that the
// emitter consults to decide between cursor-driven repainting and plain line
// output.
package terminal
