package codec

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/movenet/game"
)

// Policy selects how a score vector becomes a move.
type Policy string

const (
	Unconstrained Policy = "unconstrained" // two-hot scores, no legality check
	LegalArgmax   Policy = "legal_argmax"  // best legal class
	Sampled       Policy = "sampled"       // blended greedy / proportional draw over legal classes
)

// Width returns the score vector width the policy consumes.
func (p Policy) Width() int {
	if p == Unconstrained {
		return TwoHotWidth
	}
	return ClassCount
}

// Config configures a Decoder.
type Config struct {
	Policy Policy       `json:"policy" yaml:"decode_policy"`
	Sample SampleConfig `json:"sample" yaml:",inline"`
	// Seed for the sampling source. Zero seeds from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Policy: Sampled,
		Sample: DefaultSampleConfig(),
	}
}

func (c Config) IsValid() bool {
	switch c.Policy {
	case Unconstrained, LegalArgmax:
		return true
	case Sampled:
		return c.Sample.IsValid()
	}
	return false
}

// Decoder turns score vectors into moves with a fixed policy.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	Config
	src rand.Source
}

// NewDecoder returns a decoder for conf.
func NewDecoder(conf Config) (*Decoder, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid decoder config %+v", conf)
	}
	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Decoder{Config: conf, src: rand.NewSource(seed)}, nil
}

// Decode returns the move the policy picks. pos is ignored by the
// unconstrained policy and may be nil for it.
func (d *Decoder) Decode(scores []float32, pos game.Position) (game.Move, error) {
	switch d.Policy {
	case Unconstrained:
		return DecodeUnconstrained(scores)
	case LegalArgmax:
		return DecodeLegalArgmax(scores, pos)
	case Sampled:
		return DecodeSampled(scores, pos, d.Sample, d.src)
	}
	return game.ResignMove, errors.Errorf("unknown decode policy %q", d.Policy)
}
