package mapping

import (
	"fmt"
	"sync"
)

// LabelTable holds the bit labeling shared by every constellation with the
// same number of bits per symbol. Row i is the binary representation of
// symbol index i, bit 0 being the most significant.
type LabelTable struct {
	k      int
	bits   [][]uint8 // 2^k rows of k bits
	zero   [][]int   // zero[b]: indices whose bit b is 0, ascending
	one    [][]int   // one[b]: indices whose bit b is 1, ascending
	signed [][]int8  // 2*bits - 1, used for prior fusion
}

var (
	tableMu sync.RWMutex
	tables  = make(map[int]*LabelTable)
)

// Labels returns the label table for k bits per symbol. Tables are built
// once per k and shared afterwards; callers must treat them as read-only.
func Labels(k int) (*LabelTable, error) {
	if k < 1 {
		return nil, fmt.Errorf("bits per symbol must be at least 1, got %d", k)
	}
	tableMu.RLock()
	t := tables[k]
	tableMu.RUnlock()
	if t != nil {
		return t, nil
	}

	t = buildLabelTable(k)

	tableMu.Lock()
	if cached, ok := tables[k]; ok {
		t = cached
	} else {
		tables[k] = t
	}
	tableMu.Unlock()
	return t, nil
}

func buildLabelTable(k int) *LabelTable {
	n := 1 << k
	t := &LabelTable{
		k:      k,
		bits:   make([][]uint8, n),
		zero:   make([][]int, k),
		one:    make([][]int, k),
		signed: make([][]int8, n),
	}
	for i := 0; i < n; i++ {
		row := make([]uint8, k)
		srow := make([]int8, k)
		for b := 0; b < k; b++ {
			bit := uint8(i>>(k-1-b)) & 1
			row[b] = bit
			srow[b] = int8(2*int(bit) - 1)
		}
		t.bits[i] = row
		t.signed[i] = srow
	}
	half := n / 2
	for b := 0; b < k; b++ {
		t.zero[b] = make([]int, 0, half)
		t.one[b] = make([]int, 0, half)
		for i := 0; i < n; i++ {
			if t.bits[i][b] == 0 {
				t.zero[b] = append(t.zero[b], i)
			} else {
				t.one[b] = append(t.one[b], i)
			}
		}
	}
	return t
}

// K returns the number of bits per symbol.
func (t *LabelTable) K() int { return t.k }

// Size returns the number of symbol indices, 2^K.
func (t *LabelTable) Size() int { return 1 << t.k }

// Bits returns a copy of the bit label of the given symbol index.
func (t *LabelTable) Bits(index int) ([]uint8, error) {
	if index < 0 || index >= t.Size() {
		return nil, fmt.Errorf("symbol index %d out of range [0, %d)", index, t.Size())
	}
	out := make([]uint8, t.k)
	copy(out, t.bits[index])
	return out, nil
}

// SymbolsToBits expands symbol indices into their binary labels, K bits per
// index, most significant bit first.
func (t *LabelTable) SymbolsToBits(indices []int) ([]uint8, error) {
	out := make([]uint8, len(indices)*t.k)
	for n, idx := range indices {
		if idx < 0 || idx >= t.Size() {
			return nil, fmt.Errorf("symbol index %d out of range [0, %d)", idx, t.Size())
		}
		copy(out[n*t.k:], t.bits[idx])
	}
	return out, nil
}
