// internal/service/terminal_service_test.go
package service

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/model"
	"serial-terminal/internal/protocol"
)

// fakeTransport is an in-memory Transport driven by the tests. Read
// mimics the serial driver contract: it returns (0, nil) after a short
// timeout when no data is available.
type fakeTransport struct {
	portName string

	mu      sync.Mutex
	open    bool
	writes  [][]byte
	pending []byte

	inbound chan []byte
	closed  chan struct{}
}

func newFakeTransport(portName string) *fakeTransport {
	return &fakeTransport{
		portName: portName,
		inbound:  make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeTransport) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.open = false
		close(f.closed)
	}
	return nil
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) PortName() string { return f.portName }

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()

	select {
	case data := <-f.inbound:
		n := copy(p, data)
		if n < len(data) {
			f.mu.Lock()
			f.pending = append(f.pending, data[n:]...)
			f.mu.Unlock()
		}
		return n, nil
	case <-f.closed:
		return 0, errors.New("port closed")
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return 0, errors.New("port closed")
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeTransport) inject(data []byte) {
	f.inbound <- append([]byte(nil), data...)
}

func (f *fakeTransport) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// collectingSink records published events for assertions
type collectingSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *collectingSink) Publish(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collectingSink) byType(typ EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T, mode string) (*TerminalService, *fakeTransport) {
	t.Helper()

	transport := newFakeTransport("COM7")
	factory := protocol.Factory(func(portName string, cfg model.SerialConfig) protocol.Transport {
		return transport
	})

	cfg := &config.TerminalConfig{
		LogCapacity:          1000,
		RecordingDir:         t.TempDir(),
		SegmentationMode:     mode,
		SegmentationTimeout:  30,
		SegmentationBoundary: "any_newline",
		ReadBufferSize:       256,
	}
	svc := NewTerminalService(cfg, factory, zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return svc, transport
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestConnectAndDisconnect(t *testing.T) {
	svc, transport := newTestService(t, "combined")

	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	status := svc.Status()
	if !status.IsConnected {
		t.Fatal("status must report connected")
	}
	if status.PortName != "COM7" {
		t.Fatalf("port name = %q, want COM7", status.PortName)
	}
	if status.Config == nil || status.Config.BaudRate != 115200 {
		t.Fatal("status must carry the serial config")
	}
	if status.ConnectedAt == nil {
		t.Fatal("status must carry the connect time")
	}

	if err := svc.Disconnect(); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	if transport.IsOpen() {
		t.Fatal("transport must be closed after disconnect")
	}
	if svc.Status().IsConnected {
		t.Fatal("status must report disconnected")
	}
}

func TestSendAppendsChecksumAndLogsWireBytes(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	entry, err := svc.Send(SendRequest{
		Data:   "Hello",
		Format: model.DataFormatText,
		Checksum: model.ChecksumConfig{
			Type:       model.ChecksumXOR,
			StartIndex: 0,
			EndIndex:   -1,
		},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	want := append([]byte("Hello"), 0x42)
	writes := transport.written()
	if len(writes) != 1 || !bytes.Equal(writes[0], want) {
		t.Fatalf("wire bytes = %x, want %x", writes, want)
	}
	if !bytes.Equal(entry.Data, want) {
		t.Fatalf("logged data = %x, want the wire bytes %x", entry.Data, want)
	}
	if entry.Direction != model.DirectionSent {
		t.Fatalf("direction = %q, want sent", entry.Direction)
	}
	if got := svc.Status().BytesSent; got != uint64(len(want)) {
		t.Fatalf("bytes sent = %d, want %d", got, len(want))
	}
}

func TestSendHexPayload(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if _, err := svc.Send(SendRequest{
		Data:     "48 65 6C",
		Format:   model.DataFormatHex,
		Checksum: model.ChecksumConfig{Type: model.ChecksumNone},
	}); err != nil {
		t.Fatalf("hex send failed: %v", err)
	}
	writes := transport.written()
	if len(writes) != 1 || !bytes.Equal(writes[0], []byte{0x48, 0x65, 0x6C}) {
		t.Fatalf("wire bytes = %x", writes)
	}

	if _, err := svc.Send(SendRequest{
		Data:     "48 6",
		Format:   model.DataFormatHex,
		Checksum: model.ChecksumConfig{Type: model.ChecksumNone},
	}); err == nil {
		t.Fatal("odd-length hex must be rejected")
	}
}

func TestSendWithoutConnection(t *testing.T) {
	svc, _ := newTestService(t, "combined")

	if _, err := svc.Send(SendRequest{
		Data:     "ping",
		Format:   model.DataFormatText,
		Checksum: model.ChecksumConfig{Type: model.ChecksumNone},
	}); err == nil {
		t.Fatal("send without a connection must fail")
	}
}

func TestInboundFramesAreSegmentedAndLogged(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	transport.inject([]byte("PING\r\nPONG\r\n"))

	waitFor(t, 2*time.Second, func() bool { return len(svc.Logs()) == 2 })

	logs := svc.Logs()
	if string(logs[0].Data) != "PING\r\n" || string(logs[1].Data) != "PONG\r\n" {
		t.Fatalf("frames = %q, %q", logs[0].Data, logs[1].Data)
	}
	for _, e := range logs {
		if e.Direction != model.DirectionReceived {
			t.Fatalf("direction = %q, want received", e.Direction)
		}
		if e.PortName != "COM7" {
			t.Fatalf("port = %q, want COM7", e.PortName)
		}
		if e.TimestampText == "" {
			t.Fatal("timestamps are on by default")
		}
	}
	if got := svc.Status().BytesReceived; got != 12 {
		t.Fatalf("bytes received = %d, want 12", got)
	}
}

func TestIdleTimeoutCompletesFrame(t *testing.T) {
	svc, transport := newTestService(t, "timeout")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	transport.inject([]byte("no newline here"))

	waitFor(t, 2*time.Second, func() bool { return len(svc.Logs()) == 1 })
	if got := string(svc.Logs()[0].Data); got != "no newline here" {
		t.Fatalf("frame = %q", got)
	}
}

func TestDisconnectFlushesPartialFrame(t *testing.T) {
	svc, transport := newTestService(t, "delimiter")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	transport.inject([]byte("PART"))
	waitFor(t, 2*time.Second, func() bool { return svc.Status().BytesReceived == 4 })

	if len(svc.Logs()) != 0 {
		t.Fatal("delimiter mode must hold an incomplete frame")
	}

	if err := svc.Disconnect(); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	logs := svc.Logs()
	if len(logs) != 1 || string(logs[0].Data) != "PART" {
		t.Fatalf("logs after disconnect = %v", logs)
	}
}

func TestEventsArePublished(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	sink := &collectingSink{}
	svc.SetEventSink(sink)

	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return len(sink.byType(EventStatus)) >= 1 })

	transport.inject([]byte("DATA\n"))
	waitFor(t, 2*time.Second, func() bool { return len(sink.byType(EventLogEntry)) >= 1 })

	svc.ClearLogs()
	if len(sink.byType(EventLogsCleared)) != 1 {
		t.Fatal("clearing logs must publish an event")
	}
}

func TestSegmentationUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t, "combined")

	if err := svc.SetSegmentation(model.FrameSegmentationConfig{
		Mode:      "sideways",
		TimeoutMs: 50,
		Delimiter: model.DelimiterAnyNewline,
	}); err == nil {
		t.Fatal("invalid mode must be rejected")
	}

	cfg := model.FrameSegmentationConfig{
		Mode:      model.SegmentationTimeout,
		TimeoutMs: 5, // below the floor, clamped up
		Delimiter: model.DelimiterAnyNewline,
	}
	if err := svc.SetSegmentation(cfg); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if got := svc.Segmentation().TimeoutMs; got != model.MinSegmentTimeoutMs {
		t.Fatalf("timeout = %d, want clamped to %d", got, model.MinSegmentTimeoutMs)
	}
}

func TestDisplaySettingsAppliedToNewEntriesOnly(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	transport.inject([]byte("one\n"))
	waitFor(t, 2*time.Second, func() bool { return len(svc.Logs()) == 1 })

	if err := svc.SetDisplayFormat(model.ReceiveFormatHex); err != nil {
		t.Fatalf("set display format failed: %v", err)
	}
	transport.inject([]byte("two\n"))
	waitFor(t, 2*time.Second, func() bool { return len(svc.Logs()) == 2 })

	logs := svc.Logs()
	if logs[0].DisplayText != "one\n" {
		t.Fatalf("existing entry rewritten: %q", logs[0].DisplayText)
	}
	if logs[1].DisplayText != "74 77 6F 0A" {
		t.Fatalf("new entry = %q, want hex rendering", logs[1].DisplayText)
	}
}

func TestRecordingLifecycle(t *testing.T) {
	svc, _ := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	path, err := svc.StartTextRecording()
	if err != nil {
		t.Fatalf("start text recording failed: %v", err)
	}
	if path == "" {
		t.Fatal("recording path must be returned")
	}

	status := svc.RecordingStatus()
	if !status.TextRecordingActive || status.RawRecordingActive {
		t.Fatalf("recording status = %+v", status)
	}

	svc.StopTextRecording()
	if svc.RecordingStatus().TextRecordingActive {
		t.Fatal("text recording must be stopped")
	}
}

func TestExportLogs(t *testing.T) {
	svc, transport := newTestService(t, "combined")
	if err := svc.Connect("COM7", model.DefaultSerialConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	transport.inject([]byte("hello\n"))
	waitFor(t, 2*time.Second, func() bool { return len(svc.Logs()) == 1 })

	dir := t.TempDir()
	for _, format := range []model.ExportFormat{
		model.ExportFormatTxt, model.ExportFormatCsv, model.ExportFormatJson,
	} {
		result, err := svc.ExportLogs(dir, format)
		if err != nil {
			t.Fatalf("export %s failed: %v", format, err)
		}
		if result.EntryCount != 1 {
			t.Fatalf("export %s entry count = %d, want 1", format, result.EntryCount)
		}
	}

	if _, err := svc.ExportLogs(dir, "xml"); err == nil {
		t.Fatal("unknown export format must be rejected")
	}
}
