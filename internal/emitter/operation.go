package emitter

import (
	"bytes"
	"sync"
)

const (
	newlineByteConstant = '\n'
)

// Operation is the handle for one scoped unit of long-running work.
//
// It doubles as an io.Writer so subprocess output can stream through the
// emitter: raw chunks are assembled into whole lines before emission, so
// writes split mid-line never produce partial records.
type Operation struct {
	coordinator *Emitter
	name        string

	writeMutex       sync.Mutex
	pendingLineBytes bytes.Buffer
	closeOnce        sync.Once
	closeError       error
}

// Name reports the operation name supplied to OpenStream.
func (operation *Operation) Name() string {
	return operation.name
}

// Write assembles subprocess output into lines and emits each completed one.
func (operation *Operation) Write(chunk []byte) (int, error) {
	operation.writeMutex.Lock()
	defer operation.writeMutex.Unlock()

	chunkLength := len(chunk)
	for {
		newlineIndex := bytes.IndexByte(chunk, newlineByteConstant)
		if newlineIndex < 0 {
			operation.pendingLineBytes.Write(chunk)
			return chunkLength, nil
		}

		operation.pendingLineBytes.Write(chunk[:newlineIndex])
		operation.coordinator.emitStreamLine(operation.pendingLineBytes.String())
		operation.pendingLineBytes.Reset()
		chunk = chunk[newlineIndex+1:]
	}
}

// Close releases the operation, returning the emitter to IDLE and finalizing
// the spinner session. It runs on every exit path and is safe to call after
// the emitter has already stopped.
func (operation *Operation) Close() error {
	operation.closeOnce.Do(func() {
		operation.writeMutex.Lock()
		if operation.pendingLineBytes.Len() > 0 {
			operation.coordinator.emitStreamLine(operation.pendingLineBytes.String())
			operation.pendingLineBytes.Reset()
		}
		operation.writeMutex.Unlock()

		operation.closeError = operation.coordinator.releaseOperation()
	})
	return operation.closeError
}
