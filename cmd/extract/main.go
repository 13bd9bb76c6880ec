// Command extract turns a PGN archive into npz training pairs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	movenet "github.com/movenet"
	"github.com/movenet/extract"
	"github.com/movenet/tensorio"
)

var (
	configPath = flag.String("config", "", "yaml config file, defaults are used when empty")
	pgnPath    = flag.String("pgn", "", "PGN archive to read")
	outPath    = flag.String("out", "", "output archive, overrides output.path")
	limit      = flag.Int("limit", -1, "number of pairs to extract, 0 for the whole archive, overrides extract.pair_limit")
	samples    = flag.Int("samples", -1, "positions sampled per game, 0 for all, overrides extract.samples_per_game")
	shard      = flag.Int("shard", -1, "pairs per output file, 0 for a single file, overrides output.shard_size")
	labels     = flag.String("labels", "", "label form, class or two_hot, overrides extract.label_mode")
	countOnly  = flag.Bool("count", false, "only count qualifying games and pairs, write nothing")
	force      = flag.Bool("force", false, "overwrite existing output")
	verbose    = flag.Bool("v", false, "log rejected games")
)

func main() {
	flag.Parse()
	log := movenet.NewLogger(os.Stderr, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal().Err(err).Msg("extraction failed")
	}
}

func run(ctx context.Context, log zerolog.Logger) (err error) {
	if *pgnPath == "" {
		return errors.New("-pgn is required")
	}
	conf := movenet.DefaultConfig()
	if *configPath != "" {
		if conf, err = movenet.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *limit >= 0 {
		conf.Extract.PairLimit = *limit
	}
	if *samples >= 0 {
		conf.Extract.SamplesPerGame = *samples
	}
	if *labels != "" {
		conf.Extract.LabelMode = extract.LabelMode(*labels)
	}
	if *outPath != "" {
		conf.Output.Path = *outPath
	}
	if *shard >= 0 {
		conf.Output.ShardSize = *shard
	}
	conf.Output.LabelMode = conf.Extract.LabelMode
	conf.Output.Overwrite = conf.Output.Overwrite || *force

	var w *tensorio.Writer
	if !*countOnly {
		// refuse existing output before reading a single game
		if w, err = tensorio.NewWriter(conf.Output, log); err != nil {
			return err
		}
	}

	p, err := extract.Open(*pgnPath, conf.Extract, extract.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := drain(ctx, p, w, log); err != nil {
		return err
	}

	stats := p.Stats()
	if *countOnly {
		fmt.Printf("games read:      %s\n", humanize.Comma(int64(stats.Games)))
		fmt.Printf("games accepted:  %s\n", humanize.Comma(int64(stats.Accepted)))
		reasons := make([]extract.Rejection, 0, len(stats.Rejected))
		for r := range stats.Rejected {
			reasons = append(reasons, r)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, r := range reasons {
			fmt.Printf("rejected %-14s %s\n", r.String()+":", humanize.Comma(int64(stats.Rejected[r])))
		}
		fmt.Printf("duplicates:      %s\n", humanize.Comma(int64(stats.Duplicates)))
		fmt.Printf("distinct pairs:  %s\n", humanize.Comma(int64(stats.Pairs)))
		return nil
	}
	if err := w.Close(); err != nil {
		return err
	}
	for _, path := range w.Written() {
		fmt.Println(path)
	}
	return nil
}

// drain appends every pair of p to w until p runs out or ctx is done. A nil w
// only counts. Each pair pulled from p is appended before ctx is checked.
func drain(ctx context.Context, p *extract.Pipeline, w *tensorio.Writer, log zerolog.Logger) error {
	for p.Next() {
		if w != nil {
			if err := w.Append(p.Pair()); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			log.Warn().Msg("interrupted, writing what was extracted so far")
			break
		}
	}
	return p.Err()
}
