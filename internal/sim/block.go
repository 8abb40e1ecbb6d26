package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/jeongseonghan/baseband/internal/fec"
)

const blockHeaderBytes = 2

// EncodeBlock frames a payload for transmission: a 2-byte big-endian length,
// the payload, and a CRC-32 over both.
func EncodeBlock(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if len(payload) > 0xffff {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	block := make([]byte, 0, blockHeaderBytes+len(payload)+fec.ChecksumBytes)
	block = binary.BigEndian.AppendUint16(block, uint16(len(payload)))
	block = append(block, payload...)
	return fec.AppendChecksum(block), nil
}

// DecodeBlock checks the CRC-32 and strips the framing, returning the payload.
func DecodeBlock(block []byte) ([]byte, error) {
	body, ok := fec.VerifyChecksum(block)
	if !ok {
		return nil, fmt.Errorf("checksum mismatch")
	}
	if len(body) < blockHeaderBytes {
		return nil, fmt.Errorf("block too short: %d bytes", len(body))
	}
	n := int(binary.BigEndian.Uint16(body))
	if len(body) != blockHeaderBytes+n {
		return nil, fmt.Errorf("payload length %d does not match block body %d", n, len(body)-blockHeaderBytes)
	}
	return body[blockHeaderBytes:], nil
}

// bytesToBits unpacks bytes most significant bit first.
func bytesToBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// bitsToBytes packs bits most significant bit first. Trailing bits that do
// not fill a byte are dropped.
func bitsToBytes(bits []uint8) []byte {
	data := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | (bits[i+j] & 1)
		}
		data = append(data, b)
	}
	return data
}
