// internal/service/export.go
package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/model"
	"serial-terminal/internal/render"
)

// ExportResult describes a completed log export
type ExportResult struct {
	FilePath   string `json:"file_path"`
	EntryCount int    `json:"entry_count"`
}

// ExportLogs writes the current log snapshot to a file in the requested
// format. The file is created under dir; when dir is empty the recording
// directory is used.
func (s *TerminalService) ExportLogs(dir string, format model.ExportFormat) (ExportResult, error) {
	switch format {
	case model.ExportFormatTxt, model.ExportFormatCsv, model.ExportFormatJson:
	default:
		return ExportResult{}, fmt.Errorf("invalid export format: %q", format)
	}

	entries := s.store.Snapshot()

	if dir == "" {
		dir = s.recorder.Directory()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	name := fmt.Sprintf("terminal-log_%s.%s", time.Now().Format("2006-01-02_15-04-05"), format)
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	switch format {
	case model.ExportFormatTxt:
		err = exportText(file, entries)
	case model.ExportFormatCsv:
		err = exportCSV(file, entries)
	case model.ExportFormatJson:
		err = exportJSON(file, entries)
	}
	if err != nil {
		os.Remove(path)
		return ExportResult{}, err
	}

	s.logger.Info("Logs exported",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
		zap.String("format", string(format)),
	)
	return ExportResult{FilePath: path, EntryCount: len(entries)}, nil
}

func exportText(file *os.File, entries []model.LogEntry) error {
	header := fmt.Sprintf("# Serial terminal log export\n# Exported: %s\n# Entries: %d\n\n",
		time.Now().Format(time.RFC3339), len(entries))
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s: %s\n",
			e.Timestamp.Format("15:04:05.000"), directionTag(e.Direction), e.DisplayText)
		if _, err := file.WriteString(line); err != nil {
			return fmt.Errorf("failed to write export entry: %w", err)
		}
	}
	return nil
}

func exportCSV(file *os.File, entries []model.LogEntry) error {
	w := csv.NewWriter(file)
	if err := w.Write([]string{"id", "timestamp", "direction", "port", "hex", "display_text"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatUint(e.ID, 10),
			e.Timestamp.Format(time.RFC3339Nano),
			string(e.Direction),
			e.PortName,
			render.FormatHex(e.Data),
			e.DisplayText,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func exportJSON(file *os.File, entries []model.LogEntry) error {
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

func directionTag(d model.Direction) string {
	if d == model.DirectionSent {
		return "TX"
	}
	return "RX"
}
