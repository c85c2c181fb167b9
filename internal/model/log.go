// internal/model/log.go
package model

import "time"

// Direction indicates whether a log entry was transmitted or received
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// LogEntry is one framed exchange with the device. Data holds the exact
// wire bytes; DisplayText and TimestampText are rendered once at capture
// time so later settings changes never rewrite history.
type LogEntry struct {
	ID            uint64    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Direction     Direction `json:"direction"`
	Data          []byte    `json:"data"`
	DisplayText   string    `json:"display_text"`
	TimestampText string    `json:"timestamp_text,omitempty"`
	PortName      string    `json:"port_name"`
}

// DataFormat is the interpretation of user-supplied payload text on send
type DataFormat string

const (
	DataFormatText DataFormat = "text"
	DataFormatHex  DataFormat = "hex"
)

// ExportFormat selects the on-disk format for log exports
type ExportFormat string

const (
	ExportFormatTxt  ExportFormat = "txt"
	ExportFormatCsv  ExportFormat = "csv"
	ExportFormatJson ExportFormat = "json"
)

// RecordingStatus reports the state of the text and raw recording sessions
type RecordingStatus struct {
	TextRecordingActive bool   `json:"text_recording_active"`
	RawRecordingActive  bool   `json:"raw_recording_active"`
	TextFilePath        string `json:"text_file_path,omitempty"`
	RawFilePath         string `json:"raw_file_path,omitempty"`
}
