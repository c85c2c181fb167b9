package checksum

import (
	"bytes"
	"testing"

	"serial-terminal/internal/model"
)

var check = []byte("123456789")

func TestComputeReferenceVectors(t *testing.T) {
	tests := []struct {
		name string
		typ  model.ChecksumType
		want []byte
	}{
		{"xor", model.ChecksumXOR, []byte{0x31}},
		{"add8", model.ChecksumAdd8, []byte{0xDD}},
		{"crc8", model.ChecksumCRC8, []byte{0xF4}},
		// CRC-16/MODBUS of "123456789" is 0x4B37, emitted low byte first
		{"crc16", model.ChecksumCRC16, []byte{0x37, 0x4B}},
		// CRC-16/CCITT-FALSE of "123456789" is 0x29B1, emitted high byte first
		{"crc16_ccitt", model.ChecksumCRC16CCITT, []byte{0x29, 0xB1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.typ, check)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("Compute(%s) = % X, want % X", tt.typ, got, tt.want)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	data := []byte{0x00, 0xFF, 0x13, 0x37, 0x80, 0x7F}
	for _, typ := range []model.ChecksumType{
		model.ChecksumXOR, model.ChecksumAdd8, model.ChecksumCRC8,
		model.ChecksumCRC16, model.ChecksumCRC16CCITT,
	} {
		first := Compute(typ, data)
		for i := 0; i < 10; i++ {
			if got := Compute(typ, data); !bytes.Equal(got, first) {
				t.Fatalf("%s: non-deterministic result % X vs % X", typ, got, first)
			}
		}
	}
}

func TestComputeNoneAndEmpty(t *testing.T) {
	if got := Compute(model.ChecksumNone, check); got != nil {
		t.Fatalf("None checksum should yield no bytes, got % X", got)
	}
	if got := Compute(model.ChecksumCRC16, nil); got != nil {
		t.Fatalf("empty input should yield no bytes, got % X", got)
	}
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		s, e       int
		start, end int
	}{
		{"full range via -1", 10, 0, -1, 0, 10},
		{"interior with negative end", 10, 2, -2, 2, 9},
		{"inclusive positive end", 10, 2, 4, 2, 5},
		{"end clamped to length", 10, 0, 99, 0, 10},
		{"start past length is empty", 10, 10, -1, 0, 0},
		{"inverted range is empty", 10, 5, 2, 0, 0},
		{"negative end before start is empty", 10, 8, -5, 0, 0},
		{"negative start clamps to zero", 10, -3, 3, 0, 4},
		{"empty payload", 0, 0, -1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ResolveRange(tt.length, tt.s, tt.e)
			if start != tt.start || end != tt.end {
				t.Fatalf("ResolveRange(%d, %d, %d) = [%d, %d), want [%d, %d)",
					tt.length, tt.s, tt.e, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestAppendXOR(t *testing.T) {
	payload := []byte{0x48, 0x65, 0x6C, 0x6C, 0x6F} // "Hello"
	out := Append(payload, model.ChecksumConfig{
		Type:       model.ChecksumXOR,
		StartIndex: 0,
		EndIndex:   -1,
	})
	if len(out) != 6 {
		t.Fatalf("expected 6 bytes after append, got %d", len(out))
	}
	if out[5] != 0x42 {
		t.Fatalf("XOR of Hello should be 0x42, got %02X", out[5])
	}
}

func TestAppendEmptyRangeOmitsChecksum(t *testing.T) {
	payload := []byte{0x01, 0x02}
	out := Append(payload, model.ChecksumConfig{
		Type:       model.ChecksumCRC16,
		StartIndex: 5,
		EndIndex:   -1,
	})
	if !bytes.Equal(out, payload) {
		t.Fatalf("empty range must append nothing, got % X", out)
	}
}

func TestAppendDoesNotAliasPayload(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	out := Append(payload, model.ChecksumConfig{Type: model.ChecksumNone})
	out[0] = 0xFF
	if payload[0] != 0x01 {
		t.Fatal("Append must not mutate the input payload")
	}
}
