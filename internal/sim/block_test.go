package sim

import (
	"bytes"
	"testing"

	"github.com/jeongseonghan/baseband/internal/fec"
)

func TestBlock_EncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"short", []byte("Hello, World!")},
		{"single byte", []byte{0x42}},
		{"all zero", make([]byte, 64)},
		{"all ones", bytes.Repeat([]byte{0xFF}, 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := EncodeBlock(tt.payload)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			want := blockHeaderBytes + len(tt.payload) + fec.ChecksumBytes
			if len(block) != want {
				t.Errorf("block length = %d, want %d", len(block), want)
			}
			got, err := DecodeBlock(block)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: %x != %x", got, tt.payload)
			}
		})
	}
}

func TestBlock_ChecksumDetectsCorruption(t *testing.T) {
	block, err := EncodeBlock([]byte("Integrity test"))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	// Corrupt one byte
	block[3] ^= 0xFF

	if _, err := DecodeBlock(block); err == nil {
		t.Error("Expected checksum error for corrupted block")
	}
}

func TestBlock_Errors(t *testing.T) {
	if _, err := EncodeBlock(nil); err == nil {
		t.Error("Expected error for empty payload")
	}
	if _, err := EncodeBlock(make([]byte, 0x10000)); err == nil {
		t.Error("Expected error for oversized payload")
	}
	if _, err := DecodeBlock([]byte{0x01, 0x02}); err == nil {
		t.Error("Expected error for truncated block")
	}

	// Valid checksum over a header that claims the wrong payload length.
	bad := fec.AppendChecksum([]byte{0x00, 0x05, 0xAA, 0xBB})
	if _, err := DecodeBlock(bad); err == nil {
		t.Error("Expected error for length mismatch")
	}
}

func TestBits_RoundTrip(t *testing.T) {
	data := []byte{0xA5, 0x00, 0xFF, 0x3C}
	bits := bytesToBits(data)
	if len(bits) != 32 {
		t.Fatalf("bit count = %d, want 32", len(bits))
	}
	wantFirst := []uint8{1, 0, 1, 0, 0, 1, 0, 1}
	for i, b := range wantFirst {
		if bits[i] != b {
			t.Errorf("bits[%d] = %d, want %d", i, bits[i], b)
		}
	}
	if got := bitsToBytes(bits); !bytes.Equal(got, data) {
		t.Errorf("round trip = %x, want %x", got, data)
	}
}

func TestBits_DropsTrailing(t *testing.T) {
	bits := []uint8{1, 1, 1, 1, 0, 0, 0, 0, 1, 0, 1}
	got := bitsToBytes(bits)
	if len(got) != 1 || got[0] != 0xF0 {
		t.Errorf("bitsToBytes = %x, want f0", got)
	}
}
