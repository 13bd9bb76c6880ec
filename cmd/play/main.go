// Command play is an interactive board. Type a move in UCI notation to play
// it, an empty line to let the network move, "undo" to take a move back.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

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
	fen        = flag.String("fen", "", "starting position, the standard one when empty")
	show       = flag.Bool("show", true, "draw the network output before each network move")
)

func main() {
	flag.Parse()
	log := movenet.NewLogger(os.Stderr, false)
	if err := run(os.Stdin, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("play failed")
	}
}

func run(in io.Reader, out io.Writer, log zerolog.Logger) error {
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
	f, err := os.Open(*modelPath)
	if err != nil {
		return errors.Wrap(err, "open model")
	}
	nn, err := dual.Load(f)
	f.Close()
	if err != nil {
		return err
	}
	if nn.Head == dual.TwoHotHead {
		conf.Decode.Policy = codec.Unconstrained
	}

	agent, err := movenet.NewAgent("network", nn, conf.Decode, log)
	if err != nil {
		return err
	}
	if err := agent.SwitchToInference(1); err != nil {
		return err
	}
	defer agent.Close()

	g := game.ChessGame()
	if *fen != "" {
		if g, err = game.ChessGameFromFEN(*fen); err != nil {
			return err
		}
	}

	sc := bufio.NewScanner(in)
	for {
		if ended, winner := g.Ended(); ended {
			visual.Board(out, g)
			fmt.Fprintf(out, "game over: %v, %s\n", g.Method(), winner.Name())
			return nil
		}
		visual.Board(out, g)
		fmt.Fprint(out, "Move: ")
		if !sc.Scan() {
			return errors.WithStack(sc.Err())
		}

		switch line := strings.TrimSpace(sc.Text()); line {
		case "":
			if err := networkMove(out, agent, nn.Head, g); err != nil {
				return err
			}
		case "undo":
			g.UndoLastMove()
		case "quit":
			return nil
		default:
			m, err := game.ParseMove(line)
			if err == nil {
				err = g.Apply(m)
			}
			if err != nil {
				fmt.Fprintln(out, "Illegal move:", line)
			}
		}
	}
}

func networkMove(out io.Writer, agent *movenet.Agent, head dual.Head, g *game.Chess) error {
	if *show {
		scores, err := agent.Infer(g)
		if err != nil {
			return err
		}
		if head == dual.TwoHotHead {
			err = visual.TwoHot(out, scores)
		} else {
			err = visual.Scores(out, scores, true, 5)
		}
		if err != nil {
			return err
		}
	}
	m, err := agent.Move(g)
	if err != nil {
		return err
	}
	if m == game.ResignMove {
		fmt.Fprintln(out, "Computer move is illegal")
		return nil
	}
	fmt.Fprintln(out, "Computer move:", m)
	return g.Apply(m)
}
