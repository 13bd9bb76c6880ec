package codec

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/movenet/game"
)

// SampleConfig tunes DecodeSampled.
type SampleConfig struct {
	// Exponent reshapes score gaps before normalisation. Higher values favour the best moves.
	Exponent float32 `json:"exponent" yaml:"sample_exponent"`
	// MixWeight is the share of the greedy one-hot term; the rest goes to the
	// normalised scores. 1 is pure argmax, 0 pure proportional sampling.
	MixWeight float64 `json:"mix_weight" yaml:"sample_mix_weight"`
	// Temperature, when set, reshapes the blended distribution: 0 freezes it
	// onto the best candidate, 1 boils it to uniform. About 0.8 leaves it as is.
	Temperature *float32 `json:"temperature,omitempty" yaml:"sample_temperature,omitempty"`
}

// DefaultSampleConfig returns the sampling constants the play harnesses use.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Exponent:  3,
		MixWeight: 0.8,
	}
}

func (c SampleConfig) IsValid() bool {
	if t := c.Temperature; t != nil && (*t < 0 || *t > 1) {
		return false
	}
	return c.Exponent > 0 && c.MixWeight >= 0 && c.MixWeight <= 1
}

// Temper moves probs towards a one-hot vector on best when t is below the
// neutral point, and towards the uniform distribution above it. t is in [0,1]
// and is first bent by -2/(t^1.8-2)-1, which maps 0 to 0 and 1 to 1.
func Temper(probs []float64, best int, t float32) {
	t = -(2 / (math32.Pow(t, 1.8) - 2)) - 1
	if t < 0.5 {
		cold := float64(0.5-t) * 2
		floats.Scale(1-cold, probs)
		probs[best] += cold
		return
	}
	hot := float64(t-0.5) * 2
	floats.Scale(1-hot, probs)
	floats.AddConst(hot/float64(len(probs)), probs)
}

// Distribution returns the candidate moves of pos and the probability the
// sampling decoder assigns to each of them.
func Distribution(scores []float32, pos game.Position, conf SampleConfig) ([]game.Move, []float64, error) {
	if len(scores) != ClassCount {
		return nil, nil, &game.LengthError{What: "class scores", Got: len(scores), Want: ClassCount}
	}
	cands := candidates(pos)
	if len(cands) == 0 {
		return nil, nil, ErrNoLegalMove
	}

	raw := make([]float64, len(cands))
	for i, m := range cands {
		w := math32.Pow(scores[EncodeClass(m)], conf.Exponent)
		if math32.IsNaN(w) || math32.IsInf(w, 0) || w < 0 {
			return nil, nil, ErrDegenerateDistribution
		}
		raw[i] = float64(w)
	}
	best := floats.MaxIdx(raw)
	sum := floats.Sum(raw)
	if sum == 0 {
		return nil, nil, ErrDegenerateDistribution
	}

	probs := raw
	floats.Scale((1-conf.MixWeight)/sum, probs)
	probs[best] += conf.MixWeight
	if conf.Temperature != nil {
		Temper(probs, best, *conf.Temperature)
	}
	return cands, probs, nil
}

// DecodeSampled draws a legal move of pos. Each candidate gets its score
// raised to conf.Exponent, normalised, then blended with a one-hot vector on
// the best candidate using conf.MixWeight. The draw comes from src, so a
// seeded source makes the choice reproducible.
func DecodeSampled(scores []float32, pos game.Position, conf SampleConfig, src rand.Source) (game.Move, error) {
	cands, probs, err := Distribution(scores, pos, conf)
	if err != nil {
		return game.ResignMove, err
	}
	if len(cands) == 1 {
		return cands[0], nil
	}
	idx := int(distuv.NewCategorical(probs, src).Rand())
	return cands[idx], nil
}
