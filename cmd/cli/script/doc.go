// Package script exposes the runbook commands of the CLI: running a runbook
// step by step and validating its definition without execution.
package script
