// internal/service/terminal_service.go
package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"

	"serial-terminal/internal/checksum"
	"serial-terminal/internal/config"
	"serial-terminal/internal/framing"
	"serial-terminal/internal/logstore"
	"serial-terminal/internal/model"
	"serial-terminal/internal/protocol"
	"serial-terminal/internal/recording"
	"serial-terminal/internal/render"
	"serial-terminal/internal/utils"
)

// EventType classifies events pushed to subscribed clients
type EventType string

const (
	EventLogEntry    EventType = "log_entry"
	EventStatus      EventType = "status"
	EventLogsCleared EventType = "logs_cleared"
	EventRecording   EventType = "recording"
)

// Event is a push notification emitted alongside the snapshot API
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventSink receives terminal events; the websocket hub implements it.
// Publish must not block.
type EventSink interface {
	Publish(Event)
}

// SendRequest is a payload to transmit on the open connection
type SendRequest struct {
	Data     string               `json:"data"`
	Format   model.DataFormat     `json:"format"`
	Encoding model.TextEncoding   `json:"encoding,omitempty"`
	Checksum model.ChecksumConfig `json:"checksum"`
}

// TerminalService coordinates the two data paths of the terminal:
// inbound (transport read -> segmenter -> formatter -> log store) and
// outbound (checksum append -> transport write -> log store). One reader
// goroutine per open connection feeds the segmenter; sends run on the
// caller's goroutine and never block the reader.
type TerminalService struct {
	logger   *utils.ServiceLogger
	factory  protocol.Factory
	store    *logstore.Store
	recorder *recording.Recorder

	readBufferSize int

	mu            sync.Mutex
	transport     protocol.Transport
	portName      string
	serialConfig  *model.SerialConfig
	connectedAt   time.Time
	bytesSent     uint64
	bytesReceived uint64
	cancel        context.CancelFunc
	readerDone    chan struct{}
	segmenter     *framing.Segmenter
	wantText      bool
	wantRaw       bool

	displayMu sync.RWMutex
	display   model.DisplayConfig

	segCfg model.FrameSegmentationConfig // applied to each new connection's segmenter

	sinkMu sync.RWMutex
	sink   EventSink
}

// NewTerminalService creates the pipeline coordinator
func NewTerminalService(cfg *config.TerminalConfig, factory protocol.Factory, logger *zap.Logger) *TerminalService {
	seg := model.FrameSegmentationConfig{
		Mode:      model.SegmentationMode(cfg.SegmentationMode),
		TimeoutMs: cfg.SegmentationTimeout,
		Delimiter: model.DelimiterKind(cfg.SegmentationBoundary),
	}
	if seg.Validate() != nil {
		seg = model.DefaultFrameSegmentationConfig()
	}
	seg.Clamp()

	return &TerminalService{
		logger:         utils.NewServiceLogger(logger, "terminal-service"),
		factory:        factory,
		store:          logstore.New(cfg.LogCapacity),
		recorder:       recording.NewRecorder(cfg.RecordingDir, logger),
		readBufferSize: cfg.ReadBufferSize,
		display:        model.DefaultDisplayConfig(),
		segCfg:         seg,
	}
}

// SetEventSink wires the push channel; may be nil
func (s *TerminalService) SetEventSink(sink EventSink) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

func (s *TerminalService) publish(typ EventType, data interface{}) {
	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()
	if sink != nil {
		sink.Publish(Event{Type: typ, Data: data, Timestamp: time.Now()})
	}
}

// Connect opens the port and starts the reader goroutine. An existing
// connection is closed first. Byte counters reset.
func (s *TerminalService) Connect(portName string, serialCfg model.SerialConfig) error {
	if err := serialCfg.Validate(); err != nil {
		return err
	}
	if s.IsConnected() {
		if err := s.Disconnect(); err != nil {
			return err
		}
	}

	transport := s.factory(portName, serialCfg)
	if err := transport.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	segmenter := framing.NewSegmenter(s.segCfg)

	s.mu.Lock()
	s.transport = transport
	s.portName = portName
	s.serialConfig = &serialCfg
	s.connectedAt = time.Now()
	s.bytesSent = 0
	s.bytesReceived = 0
	s.cancel = cancel
	s.readerDone = done
	s.segmenter = segmenter
	wantText, wantRaw := s.wantText, s.wantRaw
	s.mu.Unlock()

	// Recording sessions marked active before connect resume automatically
	if wantText {
		if _, err := s.recorder.StartText(portName); err != nil {
			s.logger.Warn("Could not resume text recording", zap.Error(err))
		}
	}
	if wantRaw {
		if _, err := s.recorder.StartRaw(portName); err != nil {
			s.logger.Warn("Could not resume raw recording", zap.Error(err))
		}
	}

	go s.readLoop(ctx, transport, segmenter, portName, done)

	s.logger.Info("Connected",
		zap.String("port", portName),
		zap.Int("baud_rate", serialCfg.BaudRate),
	)
	s.publish(EventStatus, s.Status())
	return nil
}

// Disconnect is the universal cancellation signal: it stops the reader
// within one read-timeout interval, flushes any partial frame, and closes
// active recording sessions without losing buffered bytes.
func (s *TerminalService) Disconnect() error {
	s.mu.Lock()
	transport := s.transport
	cancel := s.cancel
	done := s.readerDone
	var readTimeout time.Duration
	if s.serialConfig != nil {
		readTimeout = s.serialConfig.ReadTimeout()
	}
	s.mu.Unlock()

	if transport == nil {
		return nil
	}

	cancel()
	_ = transport.Close() // unblocks a reader stuck in Read

	select {
	case <-done:
	case <-time.After(readTimeout + 500*time.Millisecond):
		s.logger.Warn("Reader did not stop within the read timeout")
	}

	s.finalize(transport)
	return nil
}

// finalize tears down connection state once for a given transport.
// Safe to call from both Disconnect and the reader's failure path.
func (s *TerminalService) finalize(transport protocol.Transport) {
	s.mu.Lock()
	if s.transport != transport {
		s.mu.Unlock()
		return
	}
	port := s.portName
	s.transport = nil
	s.cancel = nil
	s.readerDone = nil
	s.segmenter = nil
	s.serialConfig = nil
	s.portName = ""
	s.mu.Unlock()

	_ = transport.Close()
	s.recorder.StopAll()
	s.logger.Info("Disconnected", zap.String("port", port))
	s.publish(EventStatus, s.Status())
}

// readLoop is the single writer of inbound frames. It blocks on the
// transport read (bounded by the configured timeout), feeds the
// segmenter, and drives the idle-timeout check off its own wakeups.
func (s *TerminalService) readLoop(ctx context.Context, transport protocol.Transport, segmenter *framing.Segmenter, portName string, done chan struct{}) {
	defer close(done)

	buf := make([]byte, s.readBufferSize)
	for {
		select {
		case <-ctx.Done():
			s.flushResidue(segmenter, portName)
			return
		default:
		}

		n, err := transport.Read(buf)
		now := time.Now()

		if n > 0 {
			s.mu.Lock()
			s.bytesReceived += uint64(n)
			s.mu.Unlock()

			for _, frame := range segmenter.Push(buf[:n], now) {
				s.commitFrame(frame, portName)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				s.flushResidue(segmenter, portName)
				return
			}
			// Transport error: the connection is dead and the reader
			// terminates; the caller decides whether to reconnect.
			s.logger.Error("Serial read failed, terminating reader",
				zap.String("port", portName),
				zap.Error(err),
			)
			s.flushResidue(segmenter, portName)
			s.finalize(transport)
			return
		}

		if frame := segmenter.Tick(time.Now()); frame != nil {
			s.commitFrame(*frame, portName)
		}
	}
}

// flushResidue emits any partial frame so no received bytes are lost
func (s *TerminalService) flushResidue(segmenter *framing.Segmenter, portName string) {
	if frame := segmenter.Flush(time.Now()); frame != nil {
		s.commitFrame(*frame, portName)
	}
}

// commitFrame renders a completed frame, appends it to the log store and
// forwards it to active recordings. Recording writes go through buffered
// queues, never under the store lock.
func (s *TerminalService) commitFrame(frame framing.Frame, portName string) {
	entry := s.buildEntry(model.DirectionReceived, frame.Data, frame.CompletedAt, portName)
	entry = s.store.Append(entry)

	s.recorder.WriteRaw(frame.Data)
	s.recorder.WriteText(model.DirectionReceived, entry.DisplayText, frame.CompletedAt)
	s.publish(EventLogEntry, entry)
}

// buildEntry pre-renders display and timestamp text with the display
// settings in force right now; later changes never rewrite the entry.
func (s *TerminalService) buildEntry(direction model.Direction, data []byte, ts time.Time, portName string) model.LogEntry {
	display := s.DisplayConfig()
	entry := model.LogEntry{
		Timestamp:   ts,
		Direction:   direction,
		Data:        data,
		DisplayText: render.Format(data, display),
		PortName:    portName,
	}
	if display.ShowTimestamps {
		entry.TimestampText = ts.Format("15:04:05.000")
	}
	return entry
}

// Send resolves the checksum range over the decoded payload, appends the
// checksum bytes, writes the result to the transport and logs exactly the
// bytes put on the wire.
func (s *TerminalService) Send(req SendRequest) (model.LogEntry, error) {
	if err := req.Checksum.Validate(); err != nil {
		return model.LogEntry{}, err
	}
	payload, err := decodePayload(req.Data, req.Format, req.Encoding)
	if err != nil {
		return model.LogEntry{}, err
	}

	wire := checksum.Append(payload, req.Checksum)

	s.mu.Lock()
	transport := s.transport
	portName := s.portName
	s.mu.Unlock()

	if transport == nil {
		return model.LogEntry{}, fmt.Errorf("no port is currently open")
	}

	if _, err := transport.Write(wire); err != nil {
		// A write failure means the connection is dead
		s.finalize(transport)
		return model.LogEntry{}, err
	}

	now := time.Now()
	s.mu.Lock()
	s.bytesSent += uint64(len(wire))
	s.mu.Unlock()

	entry := s.buildEntry(model.DirectionSent, wire, now, portName)
	entry = s.store.Append(entry)

	s.recorder.WriteRaw(wire)
	s.recorder.WriteText(model.DirectionSent, entry.DisplayText, now)
	s.publish(EventLogEntry, entry)
	return entry, nil
}

// IsConnected reports whether a connection is open
func (s *TerminalService) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// Status returns a consistent snapshot of the connection state
func (s *TerminalService) Status() model.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := model.ConnectionStatus{
		IsConnected:   s.transport != nil,
		BytesSent:     s.bytesSent,
		BytesReceived: s.bytesReceived,
	}
	if s.transport != nil {
		status.PortName = s.portName
		cfg := *s.serialConfig
		status.Config = &cfg
		connectedAt := s.connectedAt
		status.ConnectedAt = &connectedAt
	}
	return status
}

// Logs returns a snapshot of the log store
func (s *TerminalService) Logs() []model.LogEntry {
	return s.store.Snapshot()
}

// ClearLogs empties the log store. Connection byte counters are kept.
func (s *TerminalService) ClearLogs() {
	s.store.Clear()
	s.publish(EventLogsCleared, nil)
}

// SetLogLimit resizes the log store and returns the applied capacity
func (s *TerminalService) SetLogLimit(limit int) int {
	applied := s.store.Resize(limit)
	s.logger.Info("Log limit updated", zap.Int("capacity", applied))
	return applied
}

// LogLimit returns the current log store capacity
func (s *TerminalService) LogLimit() int {
	return s.store.Capacity()
}

// SetSegmentation validates and applies new frame segmentation settings.
// Invalid settings are rejected and the prior configuration stays active.
func (s *TerminalService) SetSegmentation(cfg model.FrameSegmentationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Clamp()

	s.mu.Lock()
	s.segCfg = cfg
	segmenter := s.segmenter
	s.mu.Unlock()

	if segmenter != nil {
		segmenter.SetConfig(cfg)
	}
	s.logger.Info("Segmentation updated",
		zap.String("mode", string(cfg.Mode)),
		zap.Int("timeout_ms", cfg.TimeoutMs),
		zap.String("delimiter", string(cfg.Delimiter)),
	)
	return nil
}

// Segmentation returns the active segmentation settings
func (s *TerminalService) Segmentation() model.FrameSegmentationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segCfg
}

// SetDisplayFormat switches between hex and text rendering
func (s *TerminalService) SetDisplayFormat(format model.ReceiveFormat) error {
	switch format {
	case model.ReceiveFormatHex, model.ReceiveFormatText:
	default:
		return fmt.Errorf("invalid receive format: %q", format)
	}
	s.displayMu.Lock()
	s.display.Format = format
	s.displayMu.Unlock()
	return nil
}

// SetTextEncoding switches the text rendering encoding
func (s *TerminalService) SetTextEncoding(enc model.TextEncoding) error {
	switch enc {
	case model.EncodingUTF8, model.EncodingGBK:
	default:
		return fmt.Errorf("invalid text encoding: %q", enc)
	}
	s.displayMu.Lock()
	s.display.Encoding = enc
	s.displayMu.Unlock()
	return nil
}

// SetSpecialChars replaces the control-character visualization toggles
func (s *TerminalService) SetSpecialChars(cfg model.SpecialCharConfig) {
	s.displayMu.Lock()
	s.display.SpecialChars = cfg
	s.displayMu.Unlock()
}

// SetShowTimestamps toggles timestamp rendering on new entries
func (s *TerminalService) SetShowTimestamps(show bool) {
	s.displayMu.Lock()
	s.display.ShowTimestamps = show
	s.displayMu.Unlock()
}

// DisplayConfig returns a copy of the active display settings
func (s *TerminalService) DisplayConfig() model.DisplayConfig {
	s.displayMu.RLock()
	defer s.displayMu.RUnlock()
	return s.display
}

// StartTextRecording starts the text recording session and remembers the
// preference so it resumes on the next connect.
func (s *TerminalService) StartTextRecording() (string, error) {
	s.mu.Lock()
	s.wantText = true
	port := s.portName
	s.mu.Unlock()

	path, err := s.recorder.StartText(port)
	if err != nil {
		return "", err
	}
	s.publish(EventRecording, s.recorder.Status())
	return path, nil
}

// StopTextRecording stops the text recording session
func (s *TerminalService) StopTextRecording() {
	s.mu.Lock()
	s.wantText = false
	s.mu.Unlock()

	s.recorder.StopText()
	s.publish(EventRecording, s.recorder.Status())
}

// StartRawRecording starts the raw recording session
func (s *TerminalService) StartRawRecording() (string, error) {
	s.mu.Lock()
	s.wantRaw = true
	port := s.portName
	s.mu.Unlock()

	path, err := s.recorder.StartRaw(port)
	if err != nil {
		return "", err
	}
	s.publish(EventRecording, s.recorder.Status())
	return path, nil
}

// StopRawRecording stops the raw recording session
func (s *TerminalService) StopRawRecording() {
	s.mu.Lock()
	s.wantRaw = false
	s.mu.Unlock()

	s.recorder.StopRaw()
	s.publish(EventRecording, s.recorder.Status())
}

// RecordingStatus reports both recording sessions
func (s *TerminalService) RecordingStatus() model.RecordingStatus {
	return s.recorder.Status()
}

// SetRecordingDirectory changes where new recording files are created
func (s *TerminalService) SetRecordingDirectory(dir string) {
	s.recorder.SetDirectory(dir)
}

// Shutdown disconnects and releases all resources
func (s *TerminalService) Shutdown() {
	_ = s.Disconnect()
	s.recorder.StopAll()
}

// decodePayload converts user input into wire bytes. Hex input must have
// an even number of digits after whitespace removal; the error surfaces
// before anything reaches the pipeline.
func decodePayload(data string, format model.DataFormat, enc model.TextEncoding) ([]byte, error) {
	switch format {
	case model.DataFormatHex:
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\n', '\r', '\t':
				return -1
			}
			return r
		}, data)
		if len(cleaned)%2 != 0 {
			return nil, fmt.Errorf("hex string must have an even number of digits")
		}
		decoded, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex characters: %w", err)
		}
		return decoded, nil

	case model.DataFormatText, "":
		if enc == model.EncodingGBK {
			// Unencodable characters degrade to substitutes rather than
			// failing the whole send
			encoder := encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder())
			out, err := encoder.Bytes([]byte(data))
			if err != nil {
				return nil, fmt.Errorf("failed to encode payload as GBK: %w", err)
			}
			return out, nil
		}
		return []byte(data), nil

	default:
		return nil, fmt.Errorf("invalid data format: %q", format)
	}
}
