package logsink

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	logRecordTimestampLayoutConstant = "2006-01-02T15:04:05.000Z07:00"
	logRecordLineTemplateConstant    = "%s %s %s\n"
	logFileOpenErrorTemplateConstant = "unable to open log file %s: %w"
	logRecordWriteErrorTemplate      = "unable to append log record: %w"
	sinkClosedMessageConstant        = "log sink already closed"
	logFilePermissionsConstant       = 0o644
)

// Sink appends structured records to the run log file.
//
// The writer goroutine of the emitter is the sole caller once the run starts,
// so the sink performs no locking of its own.
type Sink struct {
	logFile     *os.File
	logFilePath string
	closed      bool
}

// OpenSink creates or truncates the run log file at the provided path.
func OpenSink(logFilePath string) (*Sink, error) {
	logFile, openError := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFilePermissionsConstant)
	if openError != nil {
		return nil, fmt.Errorf(logFileOpenErrorTemplateConstant, logFilePath, openError)
	}
	return &Sink{logFile: logFile, logFilePath: logFilePath}, nil
}

// WriteRecord appends one `<ISO8601 timestamp> <severity> <text>` line.
func (sink *Sink) WriteRecord(recordTimestamp time.Time, severity string, text string) error {
	if sink.closed {
		return fmt.Errorf(logRecordWriteErrorTemplate, os.ErrClosed)
	}

	recordLine := fmt.Sprintf(
		logRecordLineTemplateConstant,
		recordTimestamp.Format(logRecordTimestampLayoutConstant),
		severity,
		strings.TrimRight(text, "\n"),
	)
	if _, writeError := sink.logFile.WriteString(recordLine); writeError != nil {
		return fmt.Errorf(logRecordWriteErrorTemplate, writeError)
	}
	if syncError := sink.logFile.Sync(); syncError != nil {
		return fmt.Errorf(logRecordWriteErrorTemplate, syncError)
	}
	return nil
}

// Path reports the location of the run log file.
func (sink *Sink) Path() string {
	return sink.logFilePath
}

// Close flushes and releases the underlying file.
func (sink *Sink) Close() error {
	if sink.closed {
		return nil
	}
	sink.closed = true
	return sink.logFile.Close()
}
