package movenet

import (
	"context"
	"sync"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/movenet/game"
)

// ArenaConfig configures an evaluation match.
type ArenaConfig struct {
	Games     int  `json:"games" yaml:"games"`
	Parallel  int  `json:"parallel" yaml:"parallel"`   // games in flight at once
	MaxPlies  int  `json:"max_plies" yaml:"max_plies"` // adjudicate a draw after this many half moves, 0 never
	Alternate bool `json:"alternate" yaml:"alternate"` // swap colours every other game
}

func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{
		Games:    10,
		Parallel: 4,
		MaxPlies: 400,
	}
}

func (c ArenaConfig) IsValid() bool {
	return c.Games >= 0 && c.Parallel >= 1 && c.MaxPlies >= 0
}

// Result is the outcome of one arena game.
type Result struct {
	Game       int
	FirstColor chess.Color // colour the first player had
	Winner     chess.Color // chess.NoColor for draws
	Plies      int
	Reason     string
}

// Score is the match tally from the first player's point of view.
type Score struct {
	Wins int
	Loss int
	Draw int
}

func (s Score) Games() int { return s.Wins + s.Loss + s.Draw }

// Points counts a win as one and a draw as a half.
func (s Score) Points() float64 { return float64(s.Wins) + float64(s.Draw)/2 }

// Arena represents a game arena between two players.
type Arena struct {
	newGame       func() game.State
	first, second Player
	conf          ArenaConfig
	logger        zerolog.Logger

	mu      sync.Mutex
	score   Score
	results []Result
}

// MakeArena makes an arena. newGame returns a fresh starting position for every game.
func MakeArena(newGame func() game.State, first, second Player, conf ArenaConfig, logger zerolog.Logger) *Arena {
	return &Arena{
		newGame: newGame,
		first:   first,
		second:  second,
		conf:    conf,
		logger:  logger,
	}
}

// Play plays games concurrently, at most conf.Parallel at a time, and returns
// the tally of this call. The first player is white unless colours alternate.
// The first error cancels the games still in flight.
func (a *Arena) Play(ctx context.Context, games int) (Score, error) {
	if !a.conf.IsValid() {
		return Score{}, errors.Errorf("invalid arena config %+v", a.conf)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.conf.Parallel)

	results := make([]Result, games)
	for i := 0; i < games; i++ {
		i := i
		eg.Go(func() error {
			r, err := a.play(ctx, i)
			if err != nil {
				return errors.Wrapf(err, "game %d", i)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Score{}, err
	}

	var s Score
	for _, r := range results {
		switch r.Winner {
		case chess.NoColor:
			s.Draw++
		case r.FirstColor:
			s.Wins++
		default:
			s.Loss++
		}
	}
	a.mu.Lock()
	a.score.Wins += s.Wins
	a.score.Loss += s.Loss
	a.score.Draw += s.Draw
	a.results = append(a.results, results...)
	a.mu.Unlock()

	a.logger.Info().
		Str("first", a.first.Name()).
		Str("second", a.second.Name()).
		Int("wins", s.Wins).
		Int("loss", s.Loss).
		Int("draw", s.Draw).
		Float64("points", s.Points()).
		Msg("arena finished")
	return s, nil
}

// play plays a single game, and records who is the winner. If it is a draw, the returned colour is None.
func (a *Arena) play(ctx context.Context, n int) (Result, error) {
	st := a.newGame()
	white, black := a.first, a.second
	r := Result{Game: n, FirstColor: chess.White}
	if a.conf.Alternate && n%2 == 1 {
		white, black = black, white
		r.FirstColor = chess.Black
	}

	for {
		if ended, winner := st.Ended(); ended {
			r.Winner = winner
			r.Reason = st.Method().String()
			break
		}
		if a.conf.MaxPlies > 0 && r.Plies >= a.conf.MaxPlies {
			r.Winner = chess.NoColor
			r.Reason = "max plies"
			break
		}
		if err := ctx.Err(); err != nil {
			return r, err
		}

		p, side := white, chess.White
		if st.Turn() == chess.Black {
			p, side = black, chess.Black
		}
		m, err := p.Move(st)
		if err != nil {
			return r, errors.Wrapf(err, "%s to move", p.Name())
		}
		if m == game.ResignMove {
			r.Winner = side.Other()
			r.Reason = p.Name() + " resigned"
			break
		}
		if err := st.Apply(m); err != nil {
			return r, errors.Wrapf(err, "%s played", p.Name())
		}
		r.Plies++
	}

	a.recordAgents(white, black, r.Winner)
	a.logger.Debug().
		Int("game", n).
		Int("plies", r.Plies).
		Str("winner", r.Winner.Name()).
		Str("reason", r.Reason).
		Msg("game over")
	return r, nil
}

func (a *Arena) recordAgents(white, black Player, winner chess.Color) {
	if ag, ok := white.(*Agent); ok {
		ag.record(winner, chess.White)
	}
	if ag, ok := black.(*Agent); ok {
		ag.record(winner, chess.Black)
	}
}

// Score returns the tally over every Play call.
func (a *Arena) Score() Score {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.score
}

// Results returns every game played so far, in game order per Play call.
func (a *Arena) Results() []Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Result, len(a.results))
	copy(out, a.results)
	return out
}
