package mapping

import "fmt"

// Mapper maps binary vectors onto constellation points.
type Mapper struct {
	c     *Constellation
	table *LabelTable
}

// NewMapper creates a mapper for the given constellation.
func NewMapper(c *Constellation) (*Mapper, error) {
	if c == nil {
		return nil, fmt.Errorf("mapper requires a constellation")
	}
	return &Mapper{c: c, table: c.table}, nil
}

// Constellation returns the constellation the mapper maps onto.
func (m *Mapper) Constellation() *Constellation { return m.c }

// Map groups bits K at a time, most significant bit first, and returns the
// constellation point of each group. The bit count must be a multiple of K.
func (m *Mapper) Map(bits []uint8) ([]complex128, error) {
	syms, _, err := m.mapBits(bits, false)
	return syms, err
}

// MapIndices is Map returning the symbol indices alongside the points.
func (m *Mapper) MapIndices(bits []uint8) ([]complex128, []int, error) {
	return m.mapBits(bits, true)
}

func (m *Mapper) mapBits(bits []uint8, wantIndices bool) ([]complex128, []int, error) {
	k := m.table.k
	if len(bits)%k != 0 {
		return nil, nil, fmt.Errorf("bit count %d is not a multiple of %d", len(bits), k)
	}
	pts := m.c.Points()
	n := len(bits) / k
	syms := make([]complex128, n)
	var indices []int
	if wantIndices {
		indices = make([]int, n)
	}
	for g := 0; g < n; g++ {
		idx := 0
		for _, b := range bits[g*k : (g+1)*k] {
			if b > 1 {
				return nil, nil, fmt.Errorf("bit value %d is not binary", b)
			}
			idx = idx<<1 | int(b)
		}
		syms[g] = pts[idx]
		if wantIndices {
			indices[g] = idx
		}
	}
	return syms, indices, nil
}
