package dual

import "github.com/movenet/game"

// Head is the output layer of the network.
type Head string

const (
	ClassHead  Head = "class"   // softmax over from*64+to classes
	TwoHotHead Head = "two_hot" // independent sigmoids over 64 from and 64 to squares
)

// Width is the number of outputs the head produces.
func (h Head) Width() int {
	switch h {
	case ClassHead:
		return game.SquareCount * game.SquareCount
	case TwoHotHead:
		return 2 * game.SquareCount
	}
	return 0
}

// Config configures the neural network
type Config struct {
	Input     int   `json:"input" yaml:"input"`           // feature count
	Hidden    []int `json:"hidden" yaml:"hidden"`         // hidden layer widths
	Output    int   `json:"output" yaml:"output"`         // score count
	BatchSize int   `json:"batch_size" yaml:"batch_size"` // rows per forward pass
	Head      Head  `json:"head" yaml:"head"`
}

// DefaultConf returns a two hidden layer network for the board encoding.
func DefaultConf(head Head) Config {
	k := round(game.InputLength)
	return Config{
		Input:     game.InputLength,
		Hidden:    []int{k, k / 2},
		Output:    head.Width(),
		BatchSize: 16,
		Head:      head,
	}
}

func (conf Config) IsValid() bool {
	if conf.Input < 1 || conf.BatchSize < 1 {
		return false
	}
	if conf.Head.Width() == 0 || conf.Output != conf.Head.Width() {
		return false
	}
	for _, h := range conf.Hidden {
		if h < 1 {
			return false
		}
	}
	return true
}

// round rounds a to the nearest power of two.
func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}
