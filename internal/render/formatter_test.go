package render

import (
	"testing"

	"serial-terminal/internal/model"
)

func textConfig(enc model.TextEncoding) model.DisplayConfig {
	return model.DisplayConfig{Format: model.ReceiveFormatText, Encoding: enc}
}

func TestFormatHex(t *testing.T) {
	got := FormatHex([]byte{0x48, 0x65, 0x6C, 0x6C, 0x6F})
	if got != "48 65 6C 6C 6F" {
		t.Fatalf("FormatHex = %q", got)
	}
	if FormatHex(nil) != "" {
		t.Fatal("empty input should render empty string")
	}
}

func TestHexModeIgnoresEncoding(t *testing.T) {
	cfg := model.DisplayConfig{Format: model.ReceiveFormatHex, Encoding: model.EncodingGBK}
	if got := Format([]byte{0x00, 0xFF}, cfg); got != "00 FF" {
		t.Fatalf("got %q", got)
	}
}

func TestUTF8StrictDecodeFallsBackToHex(t *testing.T) {
	invalid := []byte{0xC3, 0x28} // truncated UTF-8 sequence
	got := Format(invalid, textConfig(model.EncodingUTF8))
	if got != "C3 28" {
		t.Fatalf("invalid utf-8 must render as hex, got %q", got)
	}
}

func TestGBKDecode(t *testing.T) {
	// GBK encoding of 中文
	zhongwen := []byte{0xD6, 0xD0, 0xCE, 0xC4}
	got := Format(zhongwen, textConfig(model.EncodingGBK))
	if got != "中文" {
		t.Fatalf("GBK decode = %q", got)
	}
}

func TestInvalidGBKFallsBackToHex(t *testing.T) {
	// 0x81 starts a two-byte sequence and 0x20 is not a valid trail byte
	invalid := []byte{0x81, 0x20}
	got := Format(invalid, textConfig(model.EncodingGBK))
	if got != "81 20" {
		t.Fatalf("invalid GBK must render as hex, got %q", got)
	}
}

func TestSameBytesValidUTF8InvalidGBK(t *testing.T) {
	data := []byte("héllo") // 0x68 0xC3 0xA9 ... valid UTF-8
	utf8Out := Format(data, textConfig(model.EncodingUTF8))
	if utf8Out != "héllo" {
		t.Fatalf("utf-8 render = %q", utf8Out)
	}
}

func TestControlCharSubstitution(t *testing.T) {
	cfg := textConfig(model.EncodingUTF8)
	cfg.SpecialChars = model.SpecialCharConfig{
		ConvertLF:   true,
		ConvertCR:   true,
		ConvertTab:  true,
		ConvertNull: true,
		ConvertEsc:  true,
	}
	got := Format([]byte("a\r\n\tb\x00\x1b"), cfg)
	want := "a␍␊␉b␀␛"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTogglesAreIndependent(t *testing.T) {
	cfg := textConfig(model.EncodingUTF8)
	cfg.SpecialChars = model.SpecialCharConfig{ConvertLF: true}
	got := Format([]byte("a\r\nb"), cfg)
	if got != "a\r␊b" {
		t.Fatalf("only LF should convert, got %q", got)
	}
}

func TestSpaceVisualization(t *testing.T) {
	cfg := textConfig(model.EncodingUTF8)
	cfg.SpecialChars = model.SpecialCharConfig{ConvertSpaces: true}

	tests := []struct {
		in   string
		want string
	}{
		{"a b", "a b"},                  // single mid-line space untouched
		{"a  b", "a␣␣b"},               // run of two converts
		{"a   b c", "a␣␣␣b c"},         // run converts, single stays
		{"ab ", "ab␣"},                  // single trailing space converts
		{"ab   ", "ab␣␣␣"},             // trailing run converts
		{"a b \nc  d", "a b␣\nc␣␣d"},   // per-line trailing handling
	}
	for _, tt := range tests {
		if got := Format([]byte(tt.in), cfg); got != tt.want {
			t.Fatalf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubstitutionDoesNotTouchBytesInHexFallback(t *testing.T) {
	cfg := textConfig(model.EncodingUTF8)
	cfg.SpecialChars = model.SpecialCharConfig{ConvertLF: true}
	invalid := []byte{0x0A, 0xFF}
	if got := Format(invalid, cfg); got != "0A FF" {
		t.Fatalf("hex fallback must bypass substitution, got %q", got)
	}
}
