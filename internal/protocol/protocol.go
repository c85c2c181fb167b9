// internal/protocol/protocol.go
package protocol

import "serial-terminal/internal/model"

// Transport is the physical byte pipe the terminal reads and writes.
// Read honors the configured read timeout and returns (0, nil) when it
// expires with no data, which bounds how long the reader loop blocks.
type Transport interface {
	Open() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	IsOpen() bool
	PortName() string
}

// Factory creates a transport for a port. The terminal service takes a
// Factory so tests can substitute an in-memory transport.
type Factory func(portName string, config model.SerialConfig) Transport
