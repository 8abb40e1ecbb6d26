// Package fec implements the block protection run over simulated links:
// Reed-Solomon parity over single-byte shards, in the classic RS(255,223)
// arrangement by default, plus the CRC-32 helpers the block layer frames
// payloads with. The Reed-Solomon layer repairs known erasures and verifies
// parity consistency; error positions must come from the caller.
package fec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/reedsolomon"
)

const (
	DefaultDataBytes   = 223
	DefaultParityBytes = 32
)

// Code is a Reed-Solomon block code over byte shards: codeword byte i is
// shard i, so a codeword is DataBytes payload bytes followed by ParityBytes
// parity bytes.
type Code struct {
	enc    reedsolomon.Encoder
	data   int
	parity int
}

// NewCode creates the default RS(255,223) code.
func NewCode() (*Code, error) {
	return NewCodeWith(DefaultDataBytes, DefaultParityBytes)
}

// NewCodeWith creates a code with explicit data and parity byte counts.
func NewCodeWith(data, parity int) (*Code, error) {
	enc, err := reedsolomon.New(data, parity)
	if err != nil {
		return nil, fmt.Errorf("create reed-solomon code: %w", err)
	}
	return &Code{enc: enc, data: data, parity: parity}, nil
}

// DataBytes returns the payload bytes per codeword.
func (c *Code) DataBytes() int { return c.data }

// ParityBytes returns the parity bytes per codeword.
func (c *Code) ParityBytes() int { return c.parity }

// CodewordBytes returns the total codeword size.
func (c *Code) CodewordBytes() int { return c.data + c.parity }

// Rate returns the code rate, data over codeword bytes.
func (c *Code) Rate() float64 {
	return float64(c.data) / float64(c.data+c.parity)
}

// Encode pads data with zeros up to a whole number of codeword payloads and
// appends parity to each. The output length is a multiple of CodewordBytes.
func (c *Code) Encode(data []byte) ([]byte, error) {
	words := (len(data) + c.data - 1) / c.data
	if words == 0 {
		words = 1
	}
	padded := make([]byte, words*c.data)
	copy(padded, data)

	out := make([]byte, 0, words*c.CodewordBytes())
	shards := c.newShards()
	for w := 0; w < words; w++ {
		for i := 0; i < c.data; i++ {
			shards[i][0] = padded[w*c.data+i]
		}
		for i := c.data; i < len(shards); i++ {
			shards[i][0] = 0
		}
		if err := c.enc.Encode(shards); err != nil {
			return nil, fmt.Errorf("encode codeword %d: %w", w, err)
		}
		for _, s := range shards {
			out = append(out, s[0])
		}
	}
	return out, nil
}

// Verify reports, per codeword, whether the parity is consistent with the
// payload bytes.
func (c *Code) Verify(stream []byte) ([]bool, error) {
	words, err := c.wordCount(stream)
	if err != nil {
		return nil, err
	}
	ok := make([]bool, words)
	shards := c.newShards()
	n := c.CodewordBytes()
	for w := 0; w < words; w++ {
		for i := range shards {
			shards[i][0] = stream[w*n+i]
		}
		good, err := c.enc.Verify(shards)
		if err != nil {
			return nil, fmt.Errorf("verify codeword %d: %w", w, err)
		}
		ok[w] = good
	}
	return ok, nil
}

// Extract strips the parity bytes from an encoded stream without attempting
// any correction.
func (c *Code) Extract(stream []byte) ([]byte, error) {
	words, err := c.wordCount(stream)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, words*c.data)
	n := c.CodewordBytes()
	for w := 0; w < words; w++ {
		out = append(out, stream[w*n:w*n+c.data]...)
	}
	return out, nil
}

// Repair reconstructs the stream bytes whose positions are listed in
// erasures. Codewords with more erasures than parity bytes cannot be
// reconstructed; they are returned unchanged and flagged false. Positions
// outside the stream are an error.
func (c *Code) Repair(stream []byte, erasures []int) ([]byte, []bool, error) {
	words, err := c.wordCount(stream)
	if err != nil {
		return nil, nil, err
	}
	n := c.CodewordBytes()
	byWord := make(map[int][]int, words)
	for _, pos := range erasures {
		if pos < 0 || pos >= len(stream) {
			return nil, nil, fmt.Errorf("erasure position %d out of range [0,%d)", pos, len(stream))
		}
		byWord[pos/n] = append(byWord[pos/n], pos%n)
	}

	out := make([]byte, len(stream))
	copy(out, stream)
	ok := make([]bool, words)
	for w := 0; w < words; w++ {
		gone := byWord[w]
		if len(gone) == 0 {
			ok[w] = true
			continue
		}
		shards := make([][]byte, n)
		for i := range shards {
			shards[i] = []byte{stream[w*n+i]}
		}
		for _, i := range gone {
			shards[i] = nil
		}
		if err := c.enc.Reconstruct(shards); err != nil {
			continue
		}
		for i := range shards {
			out[w*n+i] = shards[i][0]
		}
		ok[w] = true
	}
	return out, ok, nil
}

func (c *Code) newShards() [][]byte {
	shards := make([][]byte, c.CodewordBytes())
	for i := range shards {
		shards[i] = make([]byte, 1)
	}
	return shards
}

func (c *Code) wordCount(stream []byte) (int, error) {
	n := c.CodewordBytes()
	if len(stream) == 0 || len(stream)%n != 0 {
		return 0, fmt.Errorf("stream length %d is not a multiple of the %d-byte codeword", len(stream), n)
	}
	return len(stream) / n, nil
}

// ChecksumBytes is the size of the CRC-32 trailer.
const ChecksumBytes = 4

// Checksum computes the CRC-32 (IEEE) of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// AppendChecksum returns data with its big-endian CRC-32 appended.
func AppendChecksum(data []byte) []byte {
	out := make([]byte, len(data)+ChecksumBytes)
	copy(out, data)
	binary.BigEndian.PutUint32(out[len(data):], Checksum(data))
	return out
}

// VerifyChecksum splits a frame into payload and trailing CRC-32 and reports
// whether they match.
func VerifyChecksum(frame []byte) ([]byte, bool) {
	if len(frame) < ChecksumBytes {
		return nil, false
	}
	data := frame[:len(frame)-ChecksumBytes]
	want := binary.BigEndian.Uint32(frame[len(frame)-ChecksumBytes:])
	return data, Checksum(data) == want
}
