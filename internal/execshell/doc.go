// Package execshell runs external commands on behalf of runbook steps.
//
// A ShellExecutor validates the command, notifies a CommandEventObserver
// about lifecycle transitions, and delegates to a CommandRunner. The
// OSCommandRunner implementation supports both buffered execution and
// streaming execution, where combined subprocess output is forwarded to an
// io.Writer while the process runs.
package execshell
