package extract

import "github.com/pkg/errors"

// LabelMode selects the label form attached to each pair.
type LabelMode string

const (
	LabelClass  LabelMode = "class"
	LabelTwoHot LabelMode = "two_hot"
)

// DedupeMode selects the set used to drop repeated positions.
type DedupeMode string

const (
	DedupeExact  DedupeMode = "exact"  // in-memory set of position keys
	DedupeHashed DedupeMode = "hashed" // in-memory set of 64-bit key hashes
	DedupeDisk   DedupeMode = "disk"   // badger database under DedupeDir
	DedupeNone   DedupeMode = "none"
)

// Config configures an extraction run.
type Config struct {
	// games
	MinRating          int     `json:"min_rating" yaml:"min_rating"`                       // both players must be rated strictly above this
	MinBaseTimeSeconds int     `json:"min_base_time_seconds" yaml:"min_base_time_seconds"` // excludes blitz and bullet games
	IncrementWeight    float64 `json:"increment_weight" yaml:"increment_weight"`           // seconds of base time credited per second of increment
	CheckmatesOnly     bool    `json:"checkmates_only" yaml:"checkmates_only"`
	SkipMalformed      bool    `json:"skip_malformed" yaml:"skip_malformed"`

	// pairs
	SamplesPerGame int        `json:"samples_per_game" yaml:"samples_per_game"` // 0 takes every mainline pair
	PairLimit      int        `json:"pair_limit" yaml:"pair_limit"`             // 0 runs to the end of the archive
	LabelMode      LabelMode  `json:"label_mode" yaml:"label_mode"`
	Dedupe         DedupeMode `json:"dedupe" yaml:"dedupe"`
	DedupeDir      string     `json:"dedupe_dir" yaml:"dedupe_dir"`
	Seed           uint64     `json:"seed" yaml:"seed"` // sampling seed, 0 seeds from the clock

	ReportEvery int `json:"report_every" yaml:"report_every"`
}

func DefaultConfig() Config {
	return Config{
		MinRating:          1700,
		MinBaseTimeSeconds: 600,
		SamplesPerGame:     0,
		PairLimit:          100000,
		LabelMode:          LabelClass,
		Dedupe:             DedupeExact,
		ReportEvery:        1000,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	switch {
	case c.SamplesPerGame < 0:
		return errors.Errorf("samples_per_game must not be negative, got %d", c.SamplesPerGame)
	case c.PairLimit < 0:
		return errors.Errorf("pair_limit must not be negative, got %d", c.PairLimit)
	case c.ReportEvery < 0:
		return errors.Errorf("report_every must not be negative, got %d", c.ReportEvery)
	case c.IncrementWeight < 0:
		return errors.Errorf("increment_weight must not be negative, got %v", c.IncrementWeight)
	}
	switch c.LabelMode {
	case LabelClass, LabelTwoHot:
	default:
		return errors.Errorf("unknown label_mode %q", c.LabelMode)
	}
	switch c.Dedupe {
	case DedupeExact, DedupeHashed, DedupeNone:
	case DedupeDisk:
		if c.DedupeDir == "" {
			return errors.New("dedupe_dir is required with disk dedupe")
		}
	default:
		return errors.Errorf("unknown dedupe mode %q", c.Dedupe)
	}
	return nil
}

func (c Config) IsValid() bool { return c.Validate() == nil }
