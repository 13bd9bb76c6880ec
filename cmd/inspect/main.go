// Command inspect draws training pairs. It reads either one row of an npz
// archive written by extract, or a position and move given on the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	movenet "github.com/movenet"
	"github.com/movenet/codec"
	"github.com/movenet/game"
	"github.com/movenet/tensorio"
	"github.com/movenet/visual"
)

var (
	archive = flag.String("archive", "", "npz archive to read")
	index   = flag.Int("index", 0, "row of the archive to draw")
	fen     = flag.String("fen", "", "position to encode when no archive is given")
	move    = flag.String("move", "", "move to encode, in UCI notation")
)

func main() {
	flag.Parse()
	log := movenet.NewLogger(os.Stderr, false)
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("inspect failed")
	}
}

func run() error {
	features, label, err := load()
	if err != nil {
		return err
	}
	if err := visual.Input(os.Stdout, features); err != nil {
		return err
	}
	if label == nil {
		return nil
	}
	m, err := codec.DecodeUnconstrained(label)
	if err != nil {
		return err
	}
	fmt.Printf("label %s, class %d\n", m, codec.EncodeClass(m))
	return visual.TwoHot(os.Stdout, label)
}

// load returns one feature row and its label in two-hot form. The label is
// nil when there is none.
func load() ([]float32, []float32, error) {
	if *archive == "" {
		return encode()
	}
	features, labels, err := tensorio.Load(*archive)
	if err != nil {
		return nil, nil, err
	}
	rows := features.Shape()[0]
	if *index < 0 || *index >= rows {
		return nil, nil, errors.Errorf("index %d out of range, archive has %d rows", *index, rows)
	}
	data, ok := features.Data().([]float32)
	if !ok {
		return nil, nil, errors.Errorf("features of dtype %v, want float32", features.Dtype())
	}
	row := data[*index*game.InputLength:][:game.InputLength]

	switch l := labels.Data().(type) {
	case []int64:
		return row, codec.EncodeTwoHot(codec.DecodeClass(int(l[*index]))), nil
	case []float32:
		return row, l[*index*codec.TwoHotWidth:][:codec.TwoHotWidth], nil
	}
	return nil, nil, errors.Errorf("labels of dtype %v", labels.Dtype())
}

func encode() ([]float32, []float32, error) {
	g := game.ChessGame()
	if *fen != "" {
		var err error
		if g, err = game.ChessGameFromFEN(*fen); err != nil {
			return nil, nil, err
		}
	}
	features := game.EncodeBoard(g)
	if *move == "" {
		return features, nil, nil
	}
	m, err := game.ParseMove(*move)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := g.Resolve(m); !ok {
		return nil, nil, errors.Errorf("%s is not legal in this position", m)
	}
	return features, codec.EncodeTwoHot(m), nil
}
