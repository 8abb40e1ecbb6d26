package sim

import (
	"bytes"
	"context"
	"io"
	"math/cmplx"
	"math/rand"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeongseonghan/baseband/channel"
	"github.com/jeongseonghan/baseband/internal/fec"
	"github.com/jeongseonghan/baseband/mapping"
)

// Point holds the accumulated error rates for one Eb/No value.
type Point struct {
	EbNoDB       float64 `json:"ebno_db"`
	BER          float64 `json:"ber"`
	SER          float64 `json:"ser"`
	BLER         float64 `json:"bler"`
	Bits         int64   `json:"bits"`
	BitErrors    int64   `json:"bit_errors"`
	Symbols      int64   `json:"symbols"`
	SymbolErrors int64   `json:"symbol_errors"`
	Blocks       int64   `json:"blocks"`
	BlockErrors  int64   `json:"block_errors"`
	Repaired     int64   `json:"repaired,omitempty"`
}

type counts struct {
	bits, bitErrs   int64
	syms, symErrs   int64
	blocks, blkErrs int64
	repaired        int64
}

func (c *counts) add(o counts) {
	c.bits += o.bits
	c.bitErrs += o.bitErrs
	c.syms += o.syms
	c.symErrs += o.symErrs
	c.blocks += o.blocks
	c.blkErrs += o.blkErrs
	c.repaired += o.repaired
}

func (c *counts) point(ebNoDB float64) Point {
	return Point{
		EbNoDB:       ebNoDB,
		BER:          float64(c.bitErrs) / float64(c.bits),
		SER:          float64(c.symErrs) / float64(c.syms),
		BLER:         float64(c.blkErrs) / float64(c.blocks),
		Bits:         c.bits,
		BitErrors:    c.bitErrs,
		Symbols:      c.syms,
		SymbolErrors: c.symErrs,
		Blocks:       c.blocks,
		BlockErrors:  c.blkErrs,
		Repaired:     c.repaired,
	}
}

// Runner executes a configured sweep.
type Runner struct {
	cfg    *Config
	log    *log.Logger
	c      *mapping.Constellation
	mapper *mapping.Mapper
	dm     *mapping.Demapper
	code   *fec.Code
	taps   []complex128
}

// NewRunner validates the configuration and builds the transmit and receive
// chains. A nil logger silences progress output.
func NewRunner(cfg *Config, logger *log.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	kind, _ := mapping.ParseKind(cfg.Constellation)
	method, _ := mapping.ParseMethod(cfg.Method)
	prec, _ := mapping.ParsePrecision(cfg.Precision)

	c, err := mapping.NewConstellationWithOptions(kind, cfg.BitsPerSymbol, mapping.Options{Precision: prec})
	if err != nil {
		return nil, err
	}
	mapper, err := mapping.NewMapper(c)
	if err != nil {
		return nil, err
	}
	dm, err := mapping.NewDemapper(method, c)
	if err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, log: logger, c: c, mapper: mapper, dm: dm}
	if cfg.Coding {
		code, err := fec.NewCode()
		if err != nil {
			return nil, err
		}
		r.code = code
	}
	for _, t := range cfg.Taps {
		r.taps = append(r.taps, complex(t.Re, t.Im))
	}
	return r, nil
}

// Rate returns the code rate the sweep converts Eb/No with.
func (r *Runner) Rate() float64 {
	if r.code == nil {
		return 1
	}
	return r.code.Rate()
}

// Run sweeps every configured Eb/No point. Each finished point is passed to
// emit, when non-nil, before the next point starts.
func (r *Runner) Run(ctx context.Context, emit func(Point)) ([]Point, error) {
	ebnos := r.cfg.EbNos()
	r.log.Info("sweep start",
		"constellation", r.cfg.Constellation,
		"bits_per_symbol", r.cfg.BitsPerSymbol,
		"method", r.cfg.Method,
		"points", len(ebnos),
		"frames", r.cfg.Frames)

	points := make([]Point, 0, len(ebnos))
	for pi, ebno := range ebnos {
		no, err := channel.EbNoToNo(ebno, r.c.BitsPerSymbol(), r.Rate())
		if err != nil {
			return points, err
		}
		total, err := r.runPoint(ctx, pi, no)
		if err != nil {
			return points, err
		}
		p := total.point(ebno)
		r.log.Info("point complete", "ebno_db", p.EbNoDB, "ber", p.BER, "ser", p.SER, "bler", p.BLER)
		if emit != nil {
			emit(p)
		}
		points = append(points, p)
	}
	return points, nil
}

func (r *Runner) runPoint(ctx context.Context, pointIdx int, no float64) (counts, error) {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > r.cfg.Frames {
		workers = r.cfg.Frames
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    counts
		firstErr error
	)
	base := r.cfg.Frames / workers
	rem := r.cfg.Frames % workers
	for w := 0; w < workers; w++ {
		frames := base
		if w < rem {
			frames++
		}
		seed := r.cfg.Seed + int64(pointIdx)*1000003 + int64(w)*7919
		wg.Add(1)
		go func(seed int64, frames int) {
			defer wg.Done()
			local, err := r.runFrames(ctx, seed, frames, no)
			mu.Lock()
			defer mu.Unlock()
			total.add(local)
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}(seed, frames)
	}
	wg.Wait()
	if firstErr != nil {
		return counts{}, firstErr
	}
	return total, nil
}

func (r *Runner) runFrames(ctx context.Context, seed int64, frames int, no float64) (counts, error) {
	rng := rand.New(rand.NewSource(seed))
	awgn := channel.NewAWGN(seed + 1)
	payload := make([]byte, r.cfg.PayloadBytes)
	var cnt counts
	for f := 0; f < frames; f++ {
		if err := ctx.Err(); err != nil {
			return cnt, err
		}
		rng.Read(payload)
		if err := r.runFrame(awgn, payload, no, &cnt); err != nil {
			return cnt, err
		}
	}
	return cnt, nil
}

func (r *Runner) runFrame(awgn *channel.AWGN, payload []byte, no float64, cnt *counts) error {
	block, err := EncodeBlock(payload)
	if err != nil {
		return err
	}
	stream := block
	if r.code != nil {
		if stream, err = r.code.Encode(block); err != nil {
			return err
		}
	}

	k := r.c.BitsPerSymbol()
	bits := bytesToBits(stream)
	pad := 0
	if rem := len(bits) % k; rem != 0 {
		pad = k - rem
		bits = append(bits, make([]uint8, pad)...)
	}
	x, err := r.mapper.Map(bits)
	if err != nil {
		return err
	}

	var llrs []float64
	if len(r.taps) > 0 {
		llrs, err = r.fadedLLRs(awgn, x, no)
	} else {
		llrs, err = r.dm.Demap(awgn.Apply(x, no), no)
	}
	if err != nil {
		return err
	}

	rxBits := mapping.HardDecisions(llrs)
	for i := range bits {
		if bits[i] != rxBits[i] {
			cnt.bitErrs++
		}
	}
	cnt.bits += int64(len(bits))
	for s := 0; s < len(bits)/k; s++ {
		for b := 0; b < k; b++ {
			if bits[s*k+b] != rxBits[s*k+b] {
				cnt.symErrs++
				break
			}
		}
	}
	cnt.syms += int64(len(bits) / k)

	rxBytes := bitsToBytes(rxBits[:len(rxBits)-pad])
	cnt.blocks++
	rx := rxBytes
	if r.code != nil {
		if r.cfg.ErasureThreshold > 0 {
			rx, err = r.repairWeakBytes(rxBytes, llrs, cnt)
			if err != nil {
				return err
			}
		}
		if rx, err = r.code.Extract(rx); err != nil {
			return err
		}
	}
	if !r.blockOK(rx, payload) {
		cnt.blkErrs++
	}
	return nil
}

// repairWeakBytes marks every received byte whose least confident bit LLR
// falls below the threshold as an erasure and lets the Reed-Solomon code
// reconstruct them.
func (r *Runner) repairWeakBytes(rxBytes []byte, llrs []float64, cnt *counts) ([]byte, error) {
	var erasures []int
	for i := range rxBytes {
		conf := llrs[i*8]
		if conf < 0 {
			conf = -conf
		}
		for b := 1; b < 8; b++ {
			v := llrs[i*8+b]
			if v < 0 {
				v = -v
			}
			if v < conf {
				conf = v
			}
		}
		if conf < r.cfg.ErasureThreshold {
			erasures = append(erasures, i)
		}
	}
	if len(erasures) == 0 {
		return rxBytes, nil
	}
	repaired, ok, err := r.code.Repair(rxBytes, erasures)
	if err != nil {
		return nil, err
	}
	marked := make(map[int]bool, len(erasures))
	for _, pos := range erasures {
		marked[pos/r.code.CodewordBytes()] = true
	}
	for w, v := range ok {
		if v && marked[w] {
			cnt.repaired++
		}
	}
	return repaired, nil
}

func (r *Runner) blockOK(rx, payload []byte) bool {
	n := blockHeaderBytes + len(payload) + fec.ChecksumBytes
	if len(rx) < n {
		return false
	}
	got, err := DecodeBlock(rx[:n])
	return err == nil && bytes.Equal(got, payload)
}

// fadedLLRs runs the symbols through the configured frequency response with
// noise, equalizes with the known response, and demaps with the per-symbol
// post-equalization noise variance.
func (r *Runner) fadedLLRs(awgn *channel.AWGN, x []complex128, no float64) ([]float64, error) {
	n := nextPow2(len(x))
	if m := nextPow2(len(r.taps)); m > n {
		n = m
	}
	h, err := channel.FreqResponse(r.taps, n)
	if err != nil {
		return nil, err
	}
	h = h[:len(x)]
	y, err := channel.ApplyFreqAWGN(awgn, x, h, no)
	if err != nil {
		return nil, err
	}

	const tinyGain = 1e-30
	yeq := make([]complex128, len(y))
	noEff := make([]float64, len(y))
	for i, v := range y {
		g := real(h[i])*real(h[i]) + imag(h[i])*imag(h[i])
		if g < tinyGain {
			yeq[i] = 0
			noEff[i] = no / tinyGain
			continue
		}
		yeq[i] = v * cmplx.Conj(h[i]) / complex(g, 0)
		noEff[i] = no / g
	}
	return r.dm.DemapN(yeq, noEff)
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
