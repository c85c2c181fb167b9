// internal/protocol/serial_connection.go
package protocol

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"serial-terminal/internal/model"
)

// SerialConnection implements Transport over a hardware serial port
type SerialConnection struct {
	portName string
	config   model.SerialConfig
	logger   *zap.Logger
	mutex    sync.RWMutex
	port     serial.Port
	isOpen   bool
}

// NewSerialConnection creates a serial transport for the given port.
// The returned transport is closed; call Open before use.
func NewSerialConnection(portName string, config model.SerialConfig, logger *zap.Logger) Transport {
	return &SerialConnection{
		portName: portName,
		config:   config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", portName),
		),
	}
}

// Open opens the serial port with the configured mode
func (sc *SerialConnection) Open() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	sc.logger.Info("Opening serial port",
		zap.Int("baud_rate", sc.config.BaudRate),
		zap.Int("data_bits", sc.config.DataBits),
		zap.String("parity", string(sc.config.Parity)),
		zap.String("stop_bits", string(sc.config.StopBits)),
	)

	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
		Parity:   mapParity(sc.config.Parity),
		StopBits: mapStopBits(sc.config.StopBits),
	}

	// The serial driver has no mode field for flow control; an
	// unsupported setting is reported, not fatal.
	if sc.config.FlowControl != model.FlowControlNone {
		sc.logger.Warn("Flow control not supported by serial driver, proceeding without",
			zap.String("flow_control", string(sc.config.FlowControl)),
		)
	}

	port, err := serial.Open(sc.portName, mode)
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port %s: %w", sc.portName, err)
	}

	if err := port.SetReadTimeout(sc.config.ReadTimeout()); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	sc.port = port
	sc.isOpen = true
	sc.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial port
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// PortName returns the name the port was opened with
func (sc *SerialConnection) PortName() string {
	return sc.portName
}

// Read reads available bytes, blocking at most the configured read
// timeout. A timeout yields (0, nil).
func (sc *SerialConnection) Read(p []byte) (int, error) {
	sc.mutex.RLock()
	port := sc.port
	open := sc.isOpen
	sc.mutex.RUnlock()

	if !open || port == nil {
		return 0, fmt.Errorf("serial port not open")
	}
	return port.Read(p)
}

// Write writes data fully or fails
func (sc *SerialConnection) Write(p []byte) (int, error) {
	sc.mutex.RLock()
	port := sc.port
	open := sc.isOpen
	sc.mutex.RUnlock()

	if !open || port == nil {
		return 0, fmt.Errorf("serial port not open")
	}

	n, err := port.Write(p)
	if err != nil {
		sc.logger.Error("Serial write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(p))
	}

	sc.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return n, nil
}

func mapParity(p model.Parity) serial.Parity {
	switch p {
	case model.ParityOdd:
		return serial.OddParity
	case model.ParityEven:
		return serial.EvenParity
	case model.ParityMark:
		return serial.MarkParity
	case model.ParitySpace:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func mapStopBits(s model.StopBits) serial.StopBits {
	switch s {
	case model.StopBitsOnePointFive:
		return serial.OnePointFiveStopBits
	case model.StopBitsTwo:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}
