// internal/model/serial.go
package model

import (
	"fmt"
	"time"
)

// Parity represents the parity bit mode of a serial connection
type Parity string

const (
	ParityNone  Parity = "none"
	ParityOdd   Parity = "odd"
	ParityEven  Parity = "even"
	ParityMark  Parity = "mark"
	ParitySpace Parity = "space"
)

// StopBits represents the number of stop bits
type StopBits string

const (
	StopBitsOne          StopBits = "1"
	StopBitsOnePointFive StopBits = "1.5"
	StopBitsTwo          StopBits = "2"
)

// FlowControl represents the flow control mode
type FlowControl string

const (
	FlowControlNone     FlowControl = "none"
	FlowControlSoftware FlowControl = "software"
	FlowControlHardware FlowControl = "hardware"
)

// SerialConfig holds the parameters used to open a serial port.
// It is immutable for the lifetime of a connection.
type SerialConfig struct {
	BaudRate      int         `json:"baud_rate"`
	DataBits      int         `json:"data_bits"`
	Parity        Parity      `json:"parity"`
	StopBits      StopBits    `json:"stop_bits"`
	FlowControl   FlowControl `json:"flow_control"`
	ReadTimeoutMs int         `json:"read_timeout_ms"`
}

// DefaultSerialConfig returns the configuration used when a client
// omits connection parameters.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate:      115200,
		DataBits:      8,
		Parity:        ParityNone,
		StopBits:      StopBitsOne,
		FlowControl:   FlowControlNone,
		ReadTimeoutMs: 50,
	}
}

// Validate checks the configuration for values the hardware cannot accept
func (c *SerialConfig) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate)
	}
	switch c.DataBits {
	case 5, 6, 7, 8:
	default:
		return fmt.Errorf("data_bits must be one of 5, 6, 7, 8, got %d", c.DataBits)
	}
	switch c.Parity {
	case ParityNone, ParityOdd, ParityEven, ParityMark, ParitySpace:
	default:
		return fmt.Errorf("invalid parity: %q", c.Parity)
	}
	switch c.StopBits {
	case StopBitsOne, StopBitsOnePointFive, StopBitsTwo:
	default:
		return fmt.Errorf("invalid stop_bits: %q", c.StopBits)
	}
	switch c.FlowControl {
	case FlowControlNone, FlowControlSoftware, FlowControlHardware:
	default:
		return fmt.Errorf("invalid flow_control: %q", c.FlowControl)
	}
	if c.ReadTimeoutMs <= 0 {
		return fmt.Errorf("read_timeout_ms must be positive, got %d", c.ReadTimeoutMs)
	}
	return nil
}

// ReadTimeout returns the configured read timeout as a duration
func (c *SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// ConnectionStatus is a point-in-time snapshot of the active connection.
// Byte counters are cumulative and reset only when a new connection opens.
type ConnectionStatus struct {
	IsConnected   bool          `json:"is_connected"`
	PortName      string        `json:"port_name,omitempty"`
	Config        *SerialConfig `json:"config,omitempty"`
	BytesSent     uint64        `json:"bytes_sent"`
	BytesReceived uint64        `json:"bytes_received"`
	ConnectedAt   *time.Time    `json:"connected_at,omitempty"`
}

// PortInfo describes an enumerated serial port
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Session is a named, persisted serial configuration preset
type Session struct {
	Name      string       `json:"name"`
	Config    SerialConfig `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
