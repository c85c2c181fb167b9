// internal/recording/recorder.go
package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/model"
)

const writeQueueSize = 256

// Recorder manages the independent text-mode and raw-mode recording
// sessions. Each active session owns a writer goroutine fed through a
// buffered channel, so disk latency or I/O errors never block the
// inbound pipeline; a full queue drops the write and logs it.
type Recorder struct {
	logger *zap.Logger

	mu   sync.Mutex
	dir  string
	text *session
	raw  *session
}

type session struct {
	path   string
	file   *os.File
	writes chan []byte
	wg     sync.WaitGroup
}

// NewRecorder creates a recorder writing under dir
func NewRecorder(dir string, logger *zap.Logger) *Recorder {
	return &Recorder{
		logger: logger.With(zap.String("component", "recorder")),
		dir:    dir,
	}
}

// SetDirectory changes the target directory for sessions started later
func (r *Recorder) SetDirectory(dir string) {
	r.mu.Lock()
	r.dir = dir
	r.mu.Unlock()
}

// Directory returns the current target directory
func (r *Recorder) Directory() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dir
}

// StartText opens a new text recording file and returns its path.
// Fails if a text session is already active.
func (r *Recorder) StartText(portName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.text != nil {
		return "", fmt.Errorf("text recording is already active: %s", r.text.path)
	}
	s, err := r.openSession(portName, "txt")
	if err != nil {
		return "", err
	}
	r.text = s
	r.logger.Info("Text recording started", zap.String("path", s.path))
	return s.path, nil
}

// StartRaw opens a new raw recording file and returns its path.
// Fails if a raw session is already active.
func (r *Recorder) StartRaw(portName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.raw != nil {
		return "", fmt.Errorf("raw recording is already active: %s", r.raw.path)
	}
	s, err := r.openSession(portName, "bin")
	if err != nil {
		return "", err
	}
	r.raw = s
	r.logger.Info("Raw recording started", zap.String("path", s.path))
	return s.path, nil
}

// StopText closes the active text session, if any
func (r *Recorder) StopText() {
	r.mu.Lock()
	s := r.text
	r.text = nil
	r.mu.Unlock()

	if s != nil {
		s.close()
		r.logger.Info("Text recording stopped", zap.String("path", s.path))
	}
}

// StopRaw closes the active raw session, if any
func (r *Recorder) StopRaw() {
	r.mu.Lock()
	s := r.raw
	r.raw = nil
	r.mu.Unlock()

	if s != nil {
		s.close()
		r.logger.Info("Raw recording stopped", zap.String("path", s.path))
	}
}

// StopAll closes both sessions; called on disconnect and shutdown
func (r *Recorder) StopAll() {
	r.StopText()
	r.StopRaw()
}

// Status reports which sessions are active and their file paths
func (r *Recorder) Status() model.RecordingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := model.RecordingStatus{}
	if r.text != nil {
		status.TextRecordingActive = true
		status.TextFilePath = r.text.path
	}
	if r.raw != nil {
		status.RawRecordingActive = true
		status.RawFilePath = r.raw.path
	}
	return status
}

// WriteText appends one rendered line to the text recording:
// "[HH:MM:SS.mmm] RX: <text>". No-op when no text session is active.
func (r *Recorder) WriteText(direction model.Direction, text string, ts time.Time) {
	label := "RX"
	if direction == model.DirectionSent {
		label = "TX"
	}
	line := fmt.Sprintf("[%s] %s: %s\n", ts.Format("15:04:05.000"), label, text)

	r.mu.Lock()
	r.enqueue(r.text, []byte(line), "text")
	r.mu.Unlock()
}

// WriteRaw appends frame bytes verbatim to the raw recording.
// No-op when no raw session is active.
func (r *Recorder) WriteRaw(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	r.mu.Lock()
	r.enqueue(r.raw, buf, "raw")
	r.mu.Unlock()
}

// enqueue runs with r.mu held: Stop swaps the session out under the
// same lock before closing its channel, so the send can never hit a
// closed channel. The send is non-blocking, the lock never waits on I/O.
func (r *Recorder) enqueue(s *session, data []byte, kind string) {
	if s == nil {
		return
	}
	select {
	case s.writes <- data:
	default:
		r.logger.Warn("Recording queue full, dropping write",
			zap.String("kind", kind),
			zap.Int("bytes", len(data)),
		)
	}
}

func (r *Recorder) openSession(portName, ext string) (*session, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s",
		sanitizePortName(portName),
		time.Now().Format("2006-01-02_15-04-05"),
		ext,
	)
	path := filepath.Join(r.dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording file: %w", err)
	}

	s := &session{
		path:   path,
		file:   file,
		writes: make(chan []byte, writeQueueSize),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for data := range s.writes {
			if _, err := s.file.Write(data); err != nil {
				r.logger.Warn("Recording write failed",
					zap.String("path", s.path),
					zap.Error(err),
				)
			}
		}
	}()
	return s, nil
}

// close drains pending writes before releasing the file
func (s *session) close() {
	close(s.writes)
	s.wg.Wait()
	_ = s.file.Sync()
	_ = s.file.Close()
}

func sanitizePortName(name string) string {
	if name == "" {
		return "UNKNOWN"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
