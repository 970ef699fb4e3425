// Package ui translates command lifecycle events into emissions.
//
// The formatter builds concise human-readable messages for subprocess
// activity; the observer feeds them to the output coordinator so progress,
// warnings, and traces follow the configured verbosity mode instead of
// reaching the terminal directly.
package ui
