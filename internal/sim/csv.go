package sim

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"ebno_db", "ber", "ser", "bler",
	"bits", "bit_errors", "symbols", "symbol_errors",
	"blocks", "block_errors", "repaired",
}

// WriteCSV writes the sweep results as CSV with a header row.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.FormatFloat(p.EbNoDB, 'g', -1, 64),
			strconv.FormatFloat(p.BER, 'g', -1, 64),
			strconv.FormatFloat(p.SER, 'g', -1, 64),
			strconv.FormatFloat(p.BLER, 'g', -1, 64),
			strconv.FormatInt(p.Bits, 10),
			strconv.FormatInt(p.BitErrors, 10),
			strconv.FormatInt(p.Symbols, 10),
			strconv.FormatInt(p.SymbolErrors, 10),
			strconv.FormatInt(p.Blocks, 10),
			strconv.FormatInt(p.BlockErrors, 10),
			strconv.FormatInt(p.Repaired, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
