// Package script loads and executes YAML runbooks.
//
// A runbook is an ordered list of shell commands. The executor runs each
// step as a scoped emitter operation, streaming subprocess output through
// the render queue so terminal visibility follows the verbosity mode while
// the run log captures everything.
package script
