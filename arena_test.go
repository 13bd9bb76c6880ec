package movenet

import (
	"context"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movenet/codec"
	"github.com/movenet/game"
)

// scripted plays fixed moves by half-move number and resigns when it runs out.
type scripted struct {
	name  string
	moves []string
}

func (s scripted) Name() string { return s.name }

func (s scripted) Move(g game.State) (game.Move, error) {
	i := g.MoveNumber() / 2
	if i >= len(s.moves) {
		return game.ResignMove, nil
	}
	return game.ParseMove(s.moves[i])
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Move(game.State) (game.Move, error) {
	return game.ResignMove, errors.New("engine crashed")
}

func newChess() game.State { return game.ChessGame() }

func TestArenaRandomGames(t *testing.T) {
	conf := ArenaConfig{Parallel: 3, MaxPlies: 60}
	a := MakeArena(newChess, NewRandomPlayer("a", 1), NewRandomPlayer("b", 2), conf, zerolog.Nop())

	s, err := a.Play(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Games())

	results := a.Results()
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, i, r.Game)
		assert.LessOrEqual(t, r.Plies, 60)
		assert.NotEmpty(t, r.Reason)
	}

	_, err = a.Play(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 8, a.Score().Games())
}

func TestArenaFoolsMate(t *testing.T) {
	white := scripted{name: "white", moves: []string{"f2f3", "g2g4"}}
	black := scripted{name: "black", moves: []string{"e7e5", "d8h4"}}
	a := MakeArena(newChess, white, black, DefaultArenaConfig(), zerolog.Nop())

	s, err := a.Play(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Score{Loss: 1}, s)
	assert.Equal(t, 0.0, s.Points())

	r := a.Results()[0]
	assert.Equal(t, chess.Black, r.Winner)
	assert.Equal(t, 4, r.Plies)
	assert.Equal(t, chess.Checkmate.String(), r.Reason)
}

func TestArenaAlternateColours(t *testing.T) {
	conf := DefaultArenaConfig()
	conf.Alternate = true
	resigner := scripted{name: "resigner"}
	a := MakeArena(newChess, resigner, NewRandomPlayer("random", 5), conf, zerolog.Nop())

	s, err := a.Play(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, Score{Loss: 2}, s)

	results := a.Results()
	assert.Equal(t, chess.White, results[0].FirstColor)
	assert.Equal(t, chess.Black, results[0].Winner)
	assert.Equal(t, chess.Black, results[1].FirstColor)
	assert.Equal(t, chess.White, results[1].Winner)
	assert.True(t, strings.HasSuffix(results[1].Reason, "resigned"))
}

func TestArenaMaxPliesDraw(t *testing.T) {
	conf := DefaultArenaConfig()
	conf.MaxPlies = 2
	a := MakeArena(newChess, NewRandomPlayer("a", 1), NewRandomPlayer("b", 1), conf, zerolog.Nop())
	s, err := a.Play(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, Score{Draw: 3}, s)
	assert.Equal(t, 1.5, s.Points())
}

func TestArenaRecordsAgentStats(t *testing.T) {
	agent := testAgent(t, codec.LegalArgmax, &fixedInferer{scores: peaked(codec.ClassCount, codec.EncodeClass(e2e4))})
	defer agent.Close()

	conf := DefaultArenaConfig()
	conf.MaxPlies = 20
	a := MakeArena(newChess, agent, NewRandomPlayer("random", 9), conf, zerolog.Nop())
	s, err := a.Play(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, float32(s.Wins), agent.Wins)
	assert.Equal(t, float32(s.Loss), agent.Loss)
	assert.Equal(t, float32(s.Draw), agent.Draw)
	assert.Equal(t, 4, s.Games())
}

func TestArenaError(t *testing.T) {
	a := MakeArena(newChess, failing{}, NewRandomPlayer("random", 1), DefaultArenaConfig(), zerolog.Nop())
	_, err := a.Play(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine crashed")
	assert.Equal(t, 0, a.Score().Games())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a = MakeArena(newChess, NewRandomPlayer("a", 1), NewRandomPlayer("b", 2), DefaultArenaConfig(), zerolog.Nop())
	_, err = a.Play(ctx, 2)
	assert.True(t, errors.Is(err, context.Canceled))

	bad := DefaultArenaConfig()
	bad.Parallel = 0
	_, err = MakeArena(newChess, failing{}, failing{}, bad, zerolog.Nop()).Play(context.Background(), 1)
	assert.Error(t, err)
}
