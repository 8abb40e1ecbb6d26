// Package sim runs link-level error-rate sweeps: random payloads are framed,
// optionally Reed-Solomon coded, mapped onto a constellation, pushed through
// an AWGN or frequency-selective channel, soft-demapped, and decoded, with
// bit, symbol, and block error counters accumulated per Eb/No point.
package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeongseonghan/baseband/mapping"
)

// Tap is one complex channel tap in a configuration file.
type Tap struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

// Config describes one simulation sweep.
type Config struct {
	Constellation string `yaml:"constellation"`
	BitsPerSymbol int    `yaml:"bits_per_symbol"`
	Method        string `yaml:"method"`
	Precision     string `yaml:"precision"`

	EbNoStartDB float64 `yaml:"ebno_start_db"`
	EbNoStopDB  float64 `yaml:"ebno_stop_db"`
	EbNoStepDB  float64 `yaml:"ebno_step_db"`

	Frames       int  `yaml:"frames"`
	PayloadBytes int  `yaml:"payload_bytes"`
	Coding       bool `yaml:"coding"`

	// ErasureThreshold marks demapped bytes whose weakest bit LLR magnitude
	// falls below the value as erasures before Reed-Solomon repair.
	// Requires coding. Zero disables erasure marking.
	ErasureThreshold float64 `yaml:"erasure_threshold"`

	// Taps switches the channel from flat AWGN to a frequency-selective
	// response with known single-tap equalization at the receiver.
	Taps []Tap `yaml:"taps"`

	Seed    int64 `yaml:"seed"`
	Workers int   `yaml:"workers"`
}

// DefaultConfig returns a QPSK sweep over 0..10 dB.
func DefaultConfig() *Config {
	return &Config{
		Constellation: "qam",
		BitsPerSymbol: 2,
		Method:        "app",
		Precision:     "double",
		EbNoStartDB:   0,
		EbNoStopDB:    10,
		EbNoStepDB:    1,
		Frames:        100,
		PayloadBytes:  128,
		Seed:          1,
	}
}

// Load reads and validates a YAML configuration. Missing keys keep their
// DefaultConfig values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field range. It is called by Load; construct Config
// by hand and call it directly in tests.
func (c *Config) Validate() error {
	kind, err := mapping.ParseKind(c.Constellation)
	if err != nil {
		return err
	}
	if kind != mapping.KindQAM && kind != mapping.KindPAM {
		return fmt.Errorf("constellation %q is not configurable from files", c.Constellation)
	}
	if c.BitsPerSymbol < 1 {
		return fmt.Errorf("bits per symbol must be at least 1, got %d", c.BitsPerSymbol)
	}
	if kind == mapping.KindQAM && c.BitsPerSymbol%2 != 0 {
		return fmt.Errorf("qam requires an even number of bits per symbol, got %d", c.BitsPerSymbol)
	}
	if _, err := mapping.ParseMethod(c.Method); err != nil {
		return err
	}
	if _, err := mapping.ParsePrecision(c.Precision); err != nil {
		return err
	}
	if c.EbNoStepDB <= 0 {
		return fmt.Errorf("ebno step must be positive, got %v", c.EbNoStepDB)
	}
	if c.EbNoStopDB < c.EbNoStartDB {
		return fmt.Errorf("ebno stop %v below start %v", c.EbNoStopDB, c.EbNoStartDB)
	}
	if c.Frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", c.Frames)
	}
	if c.PayloadBytes < 1 {
		return fmt.Errorf("payload bytes must be at least 1, got %d", c.PayloadBytes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.ErasureThreshold < 0 {
		return fmt.Errorf("erasure threshold must not be negative, got %v", c.ErasureThreshold)
	}
	if c.ErasureThreshold > 0 && !c.Coding {
		return fmt.Errorf("erasure threshold needs coding enabled")
	}
	return nil
}

// EbNos expands the sweep into its Eb/No points in dB.
func (c *Config) EbNos() []float64 {
	var out []float64
	for v := c.EbNoStartDB; v <= c.EbNoStopDB+1e-9; v += c.EbNoStepDB {
		out = append(out, v)
	}
	return out
}
