// internal/model/settings.go
package model

import (
	"fmt"
	"time"
)

// SegmentationMode selects how the inbound byte stream is cut into frames
type SegmentationMode string

const (
	SegmentationTimeout   SegmentationMode = "timeout"
	SegmentationDelimiter SegmentationMode = "delimiter"
	SegmentationCombined  SegmentationMode = "combined"
)

// DelimiterKind names the frame boundary byte sequence
type DelimiterKind string

const (
	DelimiterAnyNewline DelimiterKind = "any_newline"
	DelimiterCR         DelimiterKind = "cr"
	DelimiterLF         DelimiterKind = "lf"
	DelimiterCRLF       DelimiterKind = "crlf"
	DelimiterCustom     DelimiterKind = "custom"
)

const (
	// Idle timeout clamp bounds for frame segmentation
	MinSegmentTimeoutMs = 10
	MaxSegmentTimeoutMs = 1000
)

// FrameSegmentationConfig controls frame boundary detection.
// Changes take effect on the next accumulation cycle; an in-flight
// partial frame is never re-segmented.
type FrameSegmentationConfig struct {
	Mode            SegmentationMode `json:"mode"`
	TimeoutMs       int              `json:"timeout_ms"`
	Delimiter       DelimiterKind    `json:"delimiter"`
	CustomDelimiter []byte           `json:"custom_delimiter,omitempty"`
}

// DefaultFrameSegmentationConfig returns the segmentation used until the
// client configures otherwise.
func DefaultFrameSegmentationConfig() FrameSegmentationConfig {
	return FrameSegmentationConfig{
		Mode:      SegmentationCombined,
		TimeoutMs: 50,
		Delimiter: DelimiterAnyNewline,
	}
}

// Validate rejects malformed segmentation settings at the boundary so the
// prior valid configuration stays in force.
func (c *FrameSegmentationConfig) Validate() error {
	switch c.Mode {
	case SegmentationTimeout, SegmentationDelimiter, SegmentationCombined:
	default:
		return fmt.Errorf("invalid segmentation mode: %q", c.Mode)
	}
	switch c.Delimiter {
	case DelimiterAnyNewline, DelimiterCR, DelimiterLF, DelimiterCRLF:
	case DelimiterCustom:
		if len(c.CustomDelimiter) == 0 {
			return fmt.Errorf("custom delimiter must not be empty")
		}
	default:
		return fmt.Errorf("invalid delimiter: %q", c.Delimiter)
	}
	return nil
}

// Clamp forces the idle timeout into its supported range
func (c *FrameSegmentationConfig) Clamp() {
	if c.TimeoutMs < MinSegmentTimeoutMs {
		c.TimeoutMs = MinSegmentTimeoutMs
	}
	if c.TimeoutMs > MaxSegmentTimeoutMs {
		c.TimeoutMs = MaxSegmentTimeoutMs
	}
}

// Timeout returns the idle timeout as a duration
func (c *FrameSegmentationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// DelimiterBytes returns the concrete boundary byte sequence. AnyNewline
// has no single byte sequence and returns nil; the segmenter matches it
// structurally.
func (c *FrameSegmentationConfig) DelimiterBytes() []byte {
	switch c.Delimiter {
	case DelimiterCR:
		return []byte{0x0D}
	case DelimiterLF:
		return []byte{0x0A}
	case DelimiterCRLF:
		return []byte{0x0D, 0x0A}
	case DelimiterCustom:
		return c.CustomDelimiter
	default:
		return nil
	}
}

// ChecksumType names the algorithm appended to outgoing payloads
type ChecksumType string

const (
	ChecksumNone       ChecksumType = "none"
	ChecksumXOR        ChecksumType = "xor"
	ChecksumAdd8       ChecksumType = "add8"
	ChecksumCRC8       ChecksumType = "crc8"
	ChecksumCRC16      ChecksumType = "crc16"
	ChecksumCRC16CCITT ChecksumType = "crc16_ccitt"
)

// ChecksumConfig selects the checksum algorithm and the payload sub-range
// it covers. Indices are inclusive on both ends in the user-facing config;
// a negative end index counts from the end of the payload (-1 is the last
// byte). Stateless across sends.
type ChecksumConfig struct {
	Type       ChecksumType `json:"type"`
	StartIndex int          `json:"start_index"`
	EndIndex   int          `json:"end_index"`
}

// Validate checks the checksum type
func (c *ChecksumConfig) Validate() error {
	switch c.Type {
	case ChecksumNone, ChecksumXOR, ChecksumAdd8, ChecksumCRC8, ChecksumCRC16, ChecksumCRC16CCITT:
		return nil
	default:
		return fmt.Errorf("invalid checksum type: %q", c.Type)
	}
}

// ReceiveFormat selects how received frames are rendered
type ReceiveFormat string

const (
	ReceiveFormatHex  ReceiveFormat = "hex"
	ReceiveFormatText ReceiveFormat = "text"
)

// TextEncoding names the character encoding for text rendering
type TextEncoding string

const (
	EncodingUTF8 TextEncoding = "utf-8"
	EncodingGBK  TextEncoding = "gbk"
)

// SpecialCharConfig holds the independent control-character visualization
// toggles applied to decoded text.
type SpecialCharConfig struct {
	ConvertLF     bool `json:"convert_lf"`
	ConvertCR     bool `json:"convert_cr"`
	ConvertTab    bool `json:"convert_tab"`
	ConvertNull   bool `json:"convert_null"`
	ConvertEsc    bool `json:"convert_esc"`
	ConvertSpaces bool `json:"convert_spaces"`
}

// DisplayConfig controls rendering of frames produced after a change;
// entries already in the log keep their original pre-rendered text.
type DisplayConfig struct {
	Format         ReceiveFormat     `json:"format"`
	Encoding       TextEncoding      `json:"encoding"`
	SpecialChars   SpecialCharConfig `json:"special_chars"`
	ShowTimestamps bool              `json:"show_timestamps"`
}

// DefaultDisplayConfig returns text rendering with UTF-8 and timestamps on
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Format:         ReceiveFormatText,
		Encoding:       EncodingUTF8,
		ShowTimestamps: true,
	}
}

// Validate checks display settings at the boundary
func (c *DisplayConfig) Validate() error {
	switch c.Format {
	case ReceiveFormatHex, ReceiveFormatText:
	default:
		return fmt.Errorf("invalid receive format: %q", c.Format)
	}
	switch c.Encoding {
	case EncodingUTF8, EncodingGBK:
	default:
		return fmt.Errorf("invalid text encoding: %q", c.Encoding)
	}
	return nil
}
