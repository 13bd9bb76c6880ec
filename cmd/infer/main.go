// Command infer scores one position with a trained network and prints the
// moves it prefers.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	movenet "github.com/movenet"
	"github.com/movenet/codec"
	dual "github.com/movenet/dualnet"
	"github.com/movenet/game"
	"github.com/movenet/visual"
)

var (
	modelPath  = flag.String("model", "", "network weight file")
	configPath = flag.String("config", "", "yaml config file for the decode section")
	fen        = flag.String("fen", "", "position to score, the starting position when empty")
	topK       = flag.Int("k", 5, "number of moves to list")
	grid       = flag.Bool("grid", false, "draw the raw scores as a grid")
	showInput  = flag.Bool("input", false, "draw the encoded board")
)

func main() {
	flag.Parse()
	log := movenet.NewLogger(os.Stderr, false)
	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("inference failed")
	}
}

func loadModel(path string) (*dual.Dual, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer f.Close()
	return dual.Load(f)
}

func run(log zerolog.Logger) error {
	if *modelPath == "" {
		return errors.New("-model is required")
	}
	conf := movenet.DefaultConfig()
	if *configPath != "" {
		var err error
		if conf, err = movenet.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	nn, err := loadModel(*modelPath)
	if err != nil {
		return err
	}
	log.Info().Ints("hidden", nn.Hidden).Str("head", string(nn.Head)).Msg("model loaded")
	if nn.Head == dual.TwoHotHead && conf.Decode.Policy != codec.Unconstrained {
		log.Info().Msg("two-hot network, decoding unconstrained")
		conf.Decode.Policy = codec.Unconstrained
	}

	g := game.ChessGame()
	if *fen != "" {
		if g, err = game.ChessGameFromFEN(*fen); err != nil {
			return err
		}
	}
	if err := visual.Board(os.Stdout, g); err != nil {
		return err
	}

	agent, err := movenet.NewAgent("model", nn, conf.Decode, log)
	if err != nil {
		return err
	}
	if err := agent.SwitchToInference(1); err != nil {
		return err
	}
	defer agent.Close()

	if *showInput {
		if err := visual.Input(os.Stdout, agent.Enc(g)); err != nil {
			return err
		}
	}
	scores, err := agent.Infer(g)
	if err != nil {
		return err
	}

	var ranked []codec.Scored
	switch nn.Head {
	case dual.TwoHotHead:
		if *grid {
			if err := visual.TwoHot(os.Stdout, scores); err != nil {
				return err
			}
		}
		ranked, err = codec.RankTwoHot(scores, *topK)
	default:
		if *grid {
			if err := visual.Scores(os.Stdout, scores, false, 0); err != nil {
				return err
			}
		}
		if ranked, err = codec.RankLegal(scores, g); err == nil && *topK > 0 && len(ranked) > *topK {
			ranked = ranked[:*topK]
		}
	}
	if err != nil {
		return err
	}
	for i, s := range ranked {
		fmt.Printf("%2d. %-6s %.4f\n", i+1, s.Move, s.Score)
	}

	m, err := agent.Move(g)
	if err != nil {
		return err
	}
	if m == game.ResignMove {
		fmt.Println("no move")
		return nil
	}
	fmt.Printf("%s plays %s\n", conf.Decode.Policy, m)
	return nil
}
