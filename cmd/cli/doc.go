// Package cli constructs the craftline command-line interface, wiring the
// dispatcher, configuration loader, output emitter, and diagnostic logging
// primitives. It exposes helpers to build reusable application instances and
// to execute the default command set as a reusable library.
package cli
