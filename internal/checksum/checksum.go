// internal/checksum/checksum.go
package checksum

import (
	"serial-terminal/internal/model"
)

// ResolveRange converts the signed, both-ends-inclusive index pair from a
// ChecksumConfig into a half-open byte range [start, end) over a payload of
// the given length. A negative end counts from the end of the payload; -1
// denotes the last byte. An out-of-range pair resolves to the empty range.
func ResolveRange(length, startIndex, endIndex int) (start, end int) {
	start = startIndex
	if start < 0 {
		start = 0
	}

	if endIndex < 0 {
		end = length + endIndex + 1
	} else {
		end = endIndex + 1
		if end > length {
			end = length
		}
	}

	if start >= length || end <= start {
		return 0, 0
	}
	return start, end
}

// Slice returns the sub-slice of data covered by the config's range.
// The result aliases data; callers must not mutate it.
func Slice(data []byte, cfg model.ChecksumConfig) []byte {
	start, end := ResolveRange(len(data), cfg.StartIndex, cfg.EndIndex)
	return data[start:end]
}

// Compute returns the checksum bytes for data under the given algorithm.
// The None type and an empty input both yield no bytes. Computation is
// pure: identical inputs always produce identical outputs.
func Compute(typ model.ChecksumType, data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	switch typ {
	case model.ChecksumXOR:
		return []byte{xorFold(data)}
	case model.ChecksumAdd8:
		return []byte{sum8(data)}
	case model.ChecksumCRC8:
		return []byte{crc8(data)}
	case model.ChecksumCRC16:
		v := crc16Modbus(data)
		return []byte{byte(v & 0xFF), byte(v >> 8)}
	case model.ChecksumCRC16CCITT:
		v := crc16CCITT(data)
		return []byte{byte(v >> 8), byte(v & 0xFF)}
	default:
		return nil
	}
}

// Append resolves the config's range over payload, computes the checksum
// and returns payload with the checksum bytes appended. The returned slice
// is always a fresh allocation.
func Append(payload []byte, cfg model.ChecksumConfig) []byte {
	out := make([]byte, len(payload), len(payload)+2)
	copy(out, payload)
	if cfg.Type == model.ChecksumNone {
		return out
	}
	sum := Compute(cfg.Type, Slice(payload, cfg))
	return append(out, sum...)
}

func xorFold(data []byte) byte {
	var acc byte
	for _, b := range data {
		acc ^= b
	}
	return acc
}

func sum8(data []byte) byte {
	var acc byte
	for _, b := range data {
		acc += b
	}
	return acc
}

// crc8 implements CRC-8 with polynomial 0x07, init 0x00, MSB-first
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// crc16Modbus implements CRC-16 with reflected polynomial 0xA001
// (0x8005 bit-reversed), init 0xFFFF, LSB-first bit processing
func crc16Modbus(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// crc16CCITT implements CRC-16/CCITT-FALSE: polynomial 0x1021, init 0xFFFF,
// MSB-first, no reflection
func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
