// Package logsink persists the lossless record of a run.
//
// Every emission produces exactly one log record regardless of the verbosity
// mode shown on the terminal. The sink owns a single append-only file per run;
// rotation keeps a bounded number of prior run logs in the application log
// directory.
package logsink
