// Package clierrors defines the error taxonomy shared by the emitter and the
// command dispatcher.
//
// CraftError captures domain failures with optional chained causes and
// resolution hints, UsageError marks bad invocations, and the state errors
// flag emitter misuse by the embedding application. ResolveExitCode maps any
// error to the process exit code contract.
package clierrors
