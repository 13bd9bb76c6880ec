// Package extract streams training pairs out of a PGN archive.
//
// A Pipeline reads the archive once, front to back. Games are filtered,
// positions are sampled from the accepted games, repeated positions are
// dropped and the survivors are encoded with the board encoder and the move
// codec. Iteration is pull based: each call to Next decodes at most as many
// games as it takes to produce one pair.
package extract

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/movenet/codec"
	"github.com/movenet/game"
)

// Pair is one encoded training example.
type Pair struct {
	Features []float32 // game.InputLength wide
	Move     game.Move
	Class    int       // codec.EncodeClass(Move)
	TwoHot   []float32 // only set with LabelTwoHot
	Key      string    // position identity used for deduplication
}

// MalformedGameError reports an archive record that could not be decoded.
type MalformedGameError struct {
	Game int // 1-based index of the record in the archive
	Err  error
}

func (e *MalformedGameError) Error() string {
	return fmt.Sprintf("malformed game %d: %v", e.Game, e.Err)
}

func (e *MalformedGameError) Unwrap() error { return e.Err }
func (e *MalformedGameError) Cause() error  { return e.Err }

// Stats counts what a run has seen so far.
type Stats struct {
	Games      int
	Accepted   int
	Rejected   map[Rejection]int
	Malformed  int
	Duplicates int
	Pairs      int
}

type candidate struct {
	pos  *chess.Position
	move *chess.Move
}

// Pipeline is a single pass over an archive. It is not safe for concurrent use.
type Pipeline struct {
	conf     Config
	filter   Filter
	scanner  *chess.Scanner
	closer   io.Closer
	seen     Set
	rnd      *rand.Rand
	progress *Progress
	log      zerolog.Logger

	pending []candidate
	cur     Pair
	stats   Stats
	lastErr error
	err     error
	done    bool
	closed  bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for progress and summaries.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// Open starts a pipeline over the archive at path. The file is closed by Close.
func Open(path string, conf Config, opts ...Option) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	p, err := New(f, conf, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// New starts a pipeline reading games from r. The scanner only emits a game
// once it sees a blank line after the movetext, so r is padded with one.
func New(r io.Reader, conf Config, opts ...Option) (*Pipeline, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	seen, err := NewSet(conf.Dedupe, conf.DedupeDir)
	if err != nil {
		return nil, err
	}
	seed := conf.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	p := &Pipeline{
		conf:    conf,
		filter:  NewFilter(conf),
		scanner: chess.NewScanner(io.MultiReader(r, strings.NewReader("\n\n"))),
		seen:    seen,
		rnd:     rand.New(rand.NewSource(seed)),
		log:     zerolog.Nop(),
		stats:   Stats{Rejected: make(map[Rejection]int)},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.progress = NewProgress(conf.ReportEvery, conf.PairLimit, p.log)
	p.progress.Start()
	return p, nil
}

// Next advances to the next pair. It returns false once the pair limit is
// reached, the archive is exhausted or an error occurred; check Err.
func (p *Pipeline) Next() bool {
	if p.done {
		return false
	}
	if p.conf.PairLimit > 0 && p.stats.Pairs >= p.conf.PairLimit {
		p.finish()
		return false
	}
	for {
		for len(p.pending) > 0 {
			c := p.pending[0]
			p.pending = p.pending[1:]

			key := game.PositionKey(c.pos)
			added, err := p.seen.Add(key)
			if err != nil {
				p.err = err
				p.finish()
				return false
			}
			if !added {
				p.stats.Duplicates++
				continue
			}
			p.cur = p.encode(c, key)
			p.stats.Pairs++
			p.progress.Observe(p.stats.Pairs)
			return true
		}
		if !p.nextGame() {
			p.finish()
			return false
		}
	}
}

// Pair returns the pair produced by the last successful call to Next.
func (p *Pipeline) Pair() Pair { return p.cur }

// Err returns the error that stopped the run, if any. Running out of games
// before the pair limit is not an error.
func (p *Pipeline) Err() error { return p.err }

// Stats returns the counters of the run so far.
func (p *Pipeline) Stats() Stats { return p.stats }

// Close releases the archive and the dedupe store. It is safe to call more than once.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var errs error
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "close archive"))
		}
	}
	if err := p.seen.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

// nextGame loads the sampled pairs of the next accepted game into pending.
func (p *Pipeline) nextGame() bool {
	for {
		if !p.scanner.Scan() {
			err := p.scanner.Err()
			if err == nil || err == io.EOF {
				return false
			}
			p.stats.Games++
			p.stats.Malformed++
			merr := &MalformedGameError{Game: p.stats.Games, Err: err}
			// a reader error repeats forever; only skip fresh decode errors
			if !p.conf.SkipMalformed || err == p.lastErr {
				p.err = merr
				return false
			}
			p.lastErr = err
			p.log.Warn().Err(merr).Msg("skipping game")
			continue
		}
		g := p.scanner.Next()
		p.stats.Games++
		if r := p.filter.Check(g); r != Accepted {
			p.stats.Rejected[r]++
			p.log.Debug().Int("game", p.stats.Games).Stringer("reason", r).Msg("game rejected")
			continue
		}
		p.stats.Accepted++
		p.pending = p.sample(g)
		if len(p.pending) > 0 {
			return true
		}
	}
}

// sample returns the (position, move) pairs of g's mainline to emit: all of
// them in order, or SamplesPerGame of them drawn without replacement.
func (p *Pipeline) sample(g *chess.Game) []candidate {
	moves := g.Moves()
	positions := g.Positions()

	idx := make([]int, len(moves))
	for i := range idx {
		idx[i] = i
	}
	if k := p.conf.SamplesPerGame; k > 0 && k < len(moves) {
		idx = p.rnd.Perm(len(moves))[:k]
	}

	out := make([]candidate, 0, len(idx))
	for _, i := range idx {
		out = append(out, candidate{pos: positions[i], move: moves[i]})
	}
	return out
}

func (p *Pipeline) encode(c candidate, key string) Pair {
	m := game.FromChess(c.move)
	pair := Pair{
		Features: game.EncodeBoard(c.pos),
		Move:     m,
		Class:    codec.EncodeClass(m),
		Key:      key,
	}
	if p.conf.LabelMode == LabelTwoHot {
		pair.TwoHot = codec.EncodeTwoHot(m)
	}
	return pair
}

func (p *Pipeline) finish() {
	if p.done {
		return
	}
	p.done = true
	ev := p.log.Info()
	if p.err != nil {
		ev = p.log.Error().Err(p.err)
	}
	for r, n := range p.stats.Rejected {
		ev = ev.Int("rejected_"+r.String(), n)
	}
	ev.Int("games", p.stats.Games).
		Int("accepted", p.stats.Accepted).
		Int("malformed", p.stats.Malformed).
		Int("duplicates", p.stats.Duplicates).
		Int("pairs", p.stats.Pairs).
		Int("distinct_positions", p.seen.Len()).
		Msg("extraction finished")
}
