package recording

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/model"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	return NewRecorder(t.TempDir(), zap.NewNop())
}

func TestTextRecordingLifecycle(t *testing.T) {
	r := newTestRecorder(t)

	path, err := r.StartText("/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("start text: %v", err)
	}
	if !strings.Contains(path, "_dev_ttyUSB0") {
		t.Fatalf("port name not sanitized into filename: %s", path)
	}

	if _, err := r.StartText("/dev/ttyUSB0"); err == nil {
		t.Fatal("second start must fail while a session is active")
	}

	ts := time.Date(2025, 3, 1, 12, 30, 45, 123_000_000, time.UTC)
	r.WriteText(model.DirectionReceived, "hello", ts)
	r.WriteText(model.DirectionSent, "world", ts)
	r.StopText()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	got := string(content)
	if !strings.Contains(got, "[12:30:45.123] RX: hello\n") {
		t.Fatalf("missing RX line in %q", got)
	}
	if !strings.Contains(got, "[12:30:45.123] TX: world\n") {
		t.Fatalf("missing TX line in %q", got)
	}
}

func TestRawRecordingWritesVerbatimBytes(t *testing.T) {
	r := newTestRecorder(t)

	path, err := r.StartRaw("COM3")
	if err != nil {
		t.Fatalf("start raw: %v", err)
	}
	r.WriteRaw([]byte{0x00, 0xFF, 0x0A})
	r.WriteRaw([]byte{0x01})
	r.StopRaw()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	want := []byte{0x00, 0xFF, 0x0A, 0x01}
	if string(content) != string(want) {
		t.Fatalf("raw file = % X, want % X", content, want)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	r := newTestRecorder(t)

	if _, err := r.StartText("COM1"); err != nil {
		t.Fatal(err)
	}
	status := r.Status()
	if !status.TextRecordingActive || status.RawRecordingActive {
		t.Fatalf("unexpected status: %+v", status)
	}

	if _, err := r.StartRaw("COM1"); err != nil {
		t.Fatalf("raw session must start independently: %v", err)
	}
	r.StopText()
	status = r.Status()
	if status.TextRecordingActive || !status.RawRecordingActive {
		t.Fatalf("stopping text must not touch raw: %+v", status)
	}
	r.StopAll()
	if s := r.Status(); s.TextRecordingActive || s.RawRecordingActive {
		t.Fatalf("sessions still active after StopAll: %+v", s)
	}
}

func TestWriteWithoutActiveSessionIsNoop(t *testing.T) {
	r := newTestRecorder(t)
	r.WriteText(model.DirectionReceived, "ignored", time.Now())
	r.WriteRaw([]byte{0x01})
	r.StopAll()
}

// Writes racing a stop must either land in the session or become
// no-ops; a stop must never close the queue out from under a writer.
func TestConcurrentWritesDuringStop(t *testing.T) {
	r := newTestRecorder(t)

	for i := 0; i < 50; i++ {
		if _, err := r.StartText("COM9"); err != nil {
			t.Fatalf("start text: %v", err)
		}
		if _, err := r.StartRaw("COM9"); err != nil {
			t.Fatalf("start raw: %v", err)
		}

		var wg sync.WaitGroup
		for w := 0; w < 3; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					r.WriteText(model.DirectionReceived, "line", time.Now())
					r.WriteRaw([]byte{0xAA})
				}
			}()
		}
		r.StopText()
		r.StopRaw()
		wg.Wait()
	}
}

func TestWriteRawCopiesInput(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.StartRaw("COM1")
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte{0x42}
	r.WriteRaw(buf)
	buf[0] = 0x00 // caller may reuse its buffer immediately
	r.StopRaw()

	content, _ := os.ReadFile(path)
	if len(content) != 1 || content[0] != 0x42 {
		t.Fatalf("recorded % X, want 42", content)
	}
}
