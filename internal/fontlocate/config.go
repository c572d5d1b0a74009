package fontlocate

import "github.com/BurntSushi/toml"

// Config carries the tunable constants behind the LARGE_BASE heuristic
// search (spec.md §4.3, §9 Open Question 2: "the LARGE base search's WINDOW
// ... is firmware-empirical; a reimplementation should make it
// configurable"). DefaultConfig reproduces the spec's fixed constants
// exactly; LoadConfig lets a deployment override them from a TOML file
// without touching code.
type Config struct {
	Stride           int   `toml:"stride"`
	FooterBytes      []int `toml:"footer_bytes"`
	InvalidBytes     []int `toml:"invalid_bytes"`
	Window           int   `toml:"window"`
	MinStride        int   `toml:"min_stride"`
	AnomalyTolerance int   `toml:"anomaly_tolerance"`

	// SmallProbes and LargeProbes are the codepoints the confidence report
	// samples (spec.md §4.3's "{0x0041,0x0042,0x0043}" and
	// "{0x4E00,0x4E01,0x4E02}").
	SmallProbes []rune `toml:"small_probes"`
	LargeProbes []rune `toml:"large_probes"`
}

// DefaultConfig returns spec.md's literal constants.
func DefaultConfig() Config {
	return Config{
		Stride:           LargeStride,
		FooterBytes:      []int{0x90, 0x8F, 0x89, 0x8B, 0x8D, 0x8E, 0x8C},
		InvalidBytes:     []int{0x00, 0xFF},
		Window:           20902 * LargeStride,
		MinStride:        100,
		AnomalyTolerance: 5,
		SmallProbes:      []rune{0x0041, 0x0042, 0x0043},
		LargeProbes:      []rune{0x4E00, 0x4E01, 0x4E02},
	}
}

// LoadConfig reads a TOML file and overlays it on DefaultConfig; fields the
// file omits keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) isFooter(b byte) bool {
	for _, f := range c.FooterBytes {
		if byte(f) == b {
			return true
		}
	}
	return false
}

func (c Config) isInvalid(b byte) bool {
	for _, f := range c.InvalidBytes {
		if byte(f) == b {
			return true
		}
	}
	return false
}
