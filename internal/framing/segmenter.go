// internal/framing/segmenter.go
package framing

import (
	"bytes"
	"sync"
	"time"

	"serial-terminal/internal/model"
)

// Frame is a contiguous group of bytes cut from the inbound stream,
// stamped with the time its boundary was detected. Delimiter bytes are
// included in Data.
type Frame struct {
	Data        []byte
	CompletedAt time.Time
}

// Segmenter converts an arbitrary-timing byte stream into discrete frames
// under the configured policy. It is a state machine over one accumulator
// buffer: Push appends bytes and cuts delimiter frames, Tick cuts an
// idle-timeout frame, Flush drains whatever remains on disconnect.
//
// Configuration changes apply on the next Push or Tick; the partial frame
// accumulated so far is never re-segmented.
type Segmenter struct {
	mu          sync.Mutex
	cfg         model.FrameSegmentationConfig
	buf         []byte
	lastArrival time.Time
}

// NewSegmenter creates a segmenter with a clamped copy of cfg
func NewSegmenter(cfg model.FrameSegmentationConfig) *Segmenter {
	cfg.Clamp()
	return &Segmenter{cfg: cfg}
}

// SetConfig replaces the segmentation policy. Takes effect on the next
// accumulation cycle.
func (s *Segmenter) SetConfig(cfg model.FrameSegmentationConfig) {
	cfg.Clamp()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Config returns the active segmentation policy
func (s *Segmenter) Config() model.FrameSegmentationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Pending reports the number of buffered bytes not yet cut into a frame
func (s *Segmenter) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Push appends a chunk of received bytes and returns every frame completed
// by a delimiter match. Matching runs over the accumulated buffer, so a
// delimiter split across chunks is still detected. In timeout mode Push
// only accumulates and returns nil.
func (s *Segmenter) Push(chunk []byte, now time.Time) []Frame {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, chunk...)
	s.lastArrival = now

	if s.cfg.Mode == model.SegmentationTimeout {
		return nil
	}
	return s.cutDelimited(now)
}

// Tick checks the idle timeout and returns the flushed residue frame, or
// nil. Call it periodically; the read loop's timeout ticks are frequent
// enough. Delimiter mode never emits on idle time.
func (s *Segmenter) Tick(now time.Time) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode == model.SegmentationDelimiter {
		return nil
	}
	if len(s.buf) == 0 || now.Sub(s.lastArrival) < s.cfg.Timeout() {
		return nil
	}
	return s.drainAll(now)
}

// Flush drains any residual partial frame so no received bytes are lost
// on disconnect. Returns nil if the buffer is empty.
func (s *Segmenter) Flush(now time.Time) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		return nil
	}
	return s.drainAll(now)
}

// cutDelimited repeatedly cuts complete frames off the front of the
// buffer. Caller holds s.mu.
func (s *Segmenter) cutDelimited(now time.Time) []Frame {
	var frames []Frame
	for {
		end := s.nextBoundary()
		if end < 0 {
			break
		}
		data := make([]byte, end)
		copy(data, s.buf[:end])
		s.buf = s.buf[:copy(s.buf, s.buf[end:])]
		frames = append(frames, Frame{Data: data, CompletedAt: now})
	}
	return frames
}

// nextBoundary returns the index one past the first complete delimiter in
// the buffer, or -1. A trailing CR under AnyNewline is not a boundary yet:
// the next byte may be the LF of a CRLF pair, and CRLF must match as one
// atomic boundary even when split across chunks.
func (s *Segmenter) nextBoundary() int {
	if s.cfg.Delimiter == model.DelimiterAnyNewline {
		for i, b := range s.buf {
			switch b {
			case 0x0D:
				if i+1 < len(s.buf) {
					if s.buf[i+1] == 0x0A {
						return i + 2
					}
					return i + 1
				}
				return -1 // trailing CR, wait for more data or the idle timer
			case 0x0A:
				return i + 1
			}
		}
		return -1
	}

	delim := s.cfg.DelimiterBytes()
	if len(delim) == 0 {
		return -1
	}
	idx := bytes.Index(s.buf, delim)
	if idx < 0 {
		return -1
	}
	return idx + len(delim)
}

// drainAll emits the whole buffer as one frame. Caller holds s.mu.
func (s *Segmenter) drainAll(now time.Time) *Frame {
	data := make([]byte, len(s.buf))
	copy(data, s.buf)
	s.buf = s.buf[:0]
	return &Frame{Data: data, CompletedAt: now}
}
