package movenet

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/movenet/codec"
	dual "github.com/movenet/dualnet"
	"github.com/movenet/extract"
	"github.com/movenet/game"
	"github.com/movenet/tensorio"
)

// Config gathers every section a movenet command reads from its config file.
type Config struct {
	Name    string                `json:"name" yaml:"name"`
	NNConf  dual.Config           `json:"nn_conf" yaml:"nn_conf"`
	Extract extract.Config        `json:"extract" yaml:"extract"`
	Output  tensorio.WriterConfig `json:"output" yaml:"output"`
	Decode  codec.Config          `json:"decode" yaml:"decode"`
	Arena   ArenaConfig           `json:"arena" yaml:"arena"`

	// extensions
	Encoder GameEncoder `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Name:    "movenet",
		NNConf:  dual.DefaultConf(dual.ClassHead),
		Extract: extract.DefaultConfig(),
		Output:  tensorio.WriterConfig{Path: "train.npz"},
		Decode:  codec.DefaultConfig(),
		Arena:   DefaultArenaConfig(),
		Encoder: game.InputEncoder,
	}
}

// Validate reports the first invalid section.
func (c Config) Validate() error {
	if !c.NNConf.IsValid() {
		return errors.Errorf("invalid nn_conf %+v", c.NNConf)
	}
	if err := c.Extract.Validate(); err != nil {
		return errors.Wrap(err, "extract")
	}
	if !c.Decode.IsValid() {
		return errors.Errorf("invalid decode section %+v", c.Decode)
	}
	if c.Decode.Policy.Width() != c.NNConf.Output {
		return errors.Errorf("decode policy %q reads %d scores, network produces %d",
			c.Decode.Policy, c.Decode.Policy.Width(), c.NNConf.Output)
	}
	if !c.Arena.IsValid() {
		return errors.Errorf("invalid arena section %+v", c.Arena)
	}
	return nil
}

func (c Config) IsValid() bool { return c.Validate() == nil }

// LoadConfig reads a yaml config file over the defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()
	return ReadConfig(f)
}

// ReadConfig reads yaml from r over the defaults. Unknown keys are an error.
func ReadConfig(r io.Reader) (Config, error) {
	conf := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.UnmarshalStrict(data, &conf); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// GameEncoder encodes a game state as a slice of floats
type GameEncoder func(a game.State) []float32

// Inferer is anything that can score a batch of encoded boards.
// *dual.Inferer satisfies it.
type Inferer interface {
	Infer(batch [][]float32) ([][]float32, error)
	io.Closer
}

// Player picks moves for whichever side is to move in g. A player with no
// move to offer returns game.ResignMove.
type Player interface {
	Name() string
	Move(g game.State) (game.Move, error)
}
