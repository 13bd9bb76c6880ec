// Command arena plays a network against a random mover or another network
// and reports the score of the first player.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	movenet "github.com/movenet"
	"github.com/movenet/codec"
	dual "github.com/movenet/dualnet"
	"github.com/movenet/game"
)

var (
	modelPath  = flag.String("model", "", "network weight file of the first player")
	opponent   = flag.String("opponent", "random", `weight file of the second player, or "random"`)
	configPath = flag.String("config", "", "yaml config file for the decode and arena sections")
	games      = flag.Int("games", -1, "games to play, overrides arena.games")
	parallel   = flag.Int("parallel", -1, "games in flight, overrides arena.parallel")
	seed       = flag.Uint64("seed", 1, "seed of the random mover")
	verbose    = flag.Bool("v", false, "log every game")
)

func main() {
	flag.Parse()
	log := movenet.NewLogger(os.Stderr, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, log); err != nil {
		log.Fatal().Err(err).Msg("arena failed")
	}
}

func loadAgent(name, path string, conf codec.Config, workers int, log zerolog.Logger) (*movenet.Agent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer f.Close()
	nn, err := dual.Load(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if nn.Head == dual.TwoHotHead {
		conf.Policy = codec.Unconstrained
	}
	a, err := movenet.NewAgent(name, nn, conf, log)
	if err != nil {
		return nil, err
	}
	if err := a.SwitchToInference(workers); err != nil {
		return nil, err
	}
	return a, nil
}

func run(ctx context.Context, log zerolog.Logger) error {
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
	if *games >= 0 {
		conf.Arena.Games = *games
	}
	if *parallel > 0 {
		conf.Arena.Parallel = *parallel
	}
	workers := conf.Arena.Parallel
	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}

	first, err := loadAgent(*modelPath, *modelPath, conf.Decode, workers, log)
	if err != nil {
		return err
	}
	defer first.Close()

	var second movenet.Player = movenet.NewRandomPlayer("random", *seed)
	if *opponent != "random" {
		a, err := loadAgent(*opponent, *opponent, conf.Decode, workers, log)
		if err != nil {
			return err
		}
		defer a.Close()
		second = a
	}

	arena := movenet.MakeArena(func() game.State { return game.ChessGame() }, first, second, conf.Arena, log)
	s, err := arena.Play(ctx, conf.Arena.Games)
	if err != nil {
		return err
	}
	fmt.Printf("%s vs %s: +%d -%d =%d, %.1f / %d\n",
		first.Name(), second.Name(), s.Wins, s.Loss, s.Draw, s.Points(), s.Games())
	return nil
}
