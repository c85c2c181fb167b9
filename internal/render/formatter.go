// internal/render/formatter.go
package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"serial-terminal/internal/model"
)

// Substitution glyphs for control-character visualization
const (
	glyphLF    = "␊"
	glyphCR    = "␍"
	glyphTab   = "␉"
	glyphNull  = "␀"
	glyphEsc   = "␛"
	glyphSpace = "␣"
)

// Format renders a completed frame into display text under the given
// display settings. Hex rendering is purely mechanical and cannot fail;
// text rendering decodes strictly and falls back to hex for the frame
// when the bytes are invalid for the configured encoding.
func Format(data []byte, cfg model.DisplayConfig) string {
	if cfg.Format == model.ReceiveFormatHex {
		return FormatHex(data)
	}

	text, ok := decodeStrict(data, cfg.Encoding)
	if !ok {
		return FormatHex(data)
	}
	return substituteSpecialChars(text, cfg.SpecialChars)
}

// FormatHex renders every byte as two uppercase hex digits separated by
// single spaces, e.g. "48 65 6C 6C 6F".
func FormatHex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(data)*3 - 1)
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(hexDigits[v>>4])
		b.WriteByte(hexDigits[v&0x0F])
	}
	return b.String()
}

// decodeStrict decodes data under the given encoding without silently
// substituting replacement characters. Returns false when the bytes are
// not valid for the encoding.
func decodeStrict(data []byte, enc model.TextEncoding) (string, bool) {
	switch enc {
	case model.EncodingGBK:
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		// The x/text decoder substitutes U+FFFD instead of erroring.
		// GBK has no mapping that decodes to U+FFFD, so its presence
		// means the input was invalid.
		if strings.ContainsRune(string(decoded), utf8.RuneError) {
			return "", false
		}
		return string(decoded), true
	default:
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
}

// substituteSpecialChars applies the control-character visualization
// toggles in a fixed order. These are textual replacements on the decoded
// string; the underlying frame bytes are untouched.
func substituteSpecialChars(text string, cfg model.SpecialCharConfig) string {
	if cfg.ConvertLF {
		text = strings.ReplaceAll(text, "\n", glyphLF)
	}
	if cfg.ConvertCR {
		text = strings.ReplaceAll(text, "\r", glyphCR)
	}
	if cfg.ConvertTab {
		text = strings.ReplaceAll(text, "\t", glyphTab)
	}
	if cfg.ConvertNull {
		text = strings.ReplaceAll(text, "\x00", glyphNull)
	}
	if cfg.ConvertEsc {
		text = strings.ReplaceAll(text, "\x1B", glyphEsc)
	}
	if cfg.ConvertSpaces {
		text = visualizeSpaces(text)
	}
	return text
}

// visualizeSpaces replaces runs of two or more consecutive spaces and any
// trailing spaces on a line with an equal count of the space glyph.
// A single isolated mid-line space stays as-is.
func visualizeSpaces(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = visualizeLineSpaces(line)
	}
	return strings.Join(lines, "\n")
}

func visualizeLineSpaces(line string) string {
	trimmed := strings.TrimRight(line, " ")
	trailing := len(line) - len(trimmed)

	var b strings.Builder
	run := 0
	flush := func() {
		if run >= 2 {
			b.WriteString(strings.Repeat(glyphSpace, run))
		} else if run == 1 {
			b.WriteByte(' ')
		}
		run = 0
	}
	for _, r := range trimmed {
		if r == ' ' {
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	b.WriteString(strings.Repeat(glyphSpace, trailing))
	return b.String()
}
