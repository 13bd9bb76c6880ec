package visual

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movenet/codec"
	"github.com/movenet/game"
)

func TestNeuron(t *testing.T) {
	s, err := Neuron(1, false)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;255;255;255m██\x1b[0m", s)

	s, err = Neuron(0, false)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;0;0;0m██\x1b[0m", s)

	s, err = Neuron(0.5, true)
	require.NoError(t, err)
	assert.Equal(t, "0.50", s)

	for _, v := range []float32{-0.01, 1.01} {
		_, err = Neuron(v, false)
		assert.Error(t, err)
	}
}

func TestInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Input(&buf, game.EncodeBoard(chess.NewGame().Position())))

	lines := strings.Split(buf.String(), "\n")
	// side to move, then 8 ranks of 8 square lines and a blank separator
	require.Len(t, lines, 1+8*9+1)
	assert.Equal(t, 1, strings.Count(lines[0], block))
	assert.Equal(t, game.BlockWidth, strings.Count(lines[1], block))
	assert.Empty(t, lines[9])

	err := Input(&buf, make([]float32, 12))
	var lerr *game.LengthError
	assert.True(t, errors.As(err, &lerr))
}

func TestTwoHot(t *testing.T) {
	var buf bytes.Buffer
	m := game.Move{From: chess.E2, To: chess.E4}
	require.NoError(t, TwoHot(&buf, codec.EncodeTwoHot(m)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "8 "))
	assert.Equal(t, fileLabels+"\t"+fileLabels, lines[8])

	lit := "\x1b[38;2;255;255;255m"
	// rank 2 is the 7th line from the top, rank 4 the 5th
	assert.Equal(t, 1, strings.Count(lines[6], lit))
	assert.Equal(t, 1, strings.Count(lines[4], lit))
	assert.Equal(t, 0, strings.Count(lines[0], lit))

	scores := codec.EncodeTwoHot(m)
	scores[3] = 2
	assert.Error(t, TwoHot(&buf, scores))
}

func TestScores(t *testing.T) {
	scores := make([]float32, codec.ClassCount)
	scores[codec.EncodeClass(game.Move{From: chess.G1, To: chess.F3})] = 0.75
	scores[codec.EncodeClass(game.Move{From: chess.E2, To: chess.E4})] = 0.25

	var buf bytes.Buffer
	require.NoError(t, Scores(&buf, scores, true, 2))
	assert.Equal(t, "g1f3 0.7500\ne2e4 0.2500\n", buf.String())

	buf.Reset()
	require.NoError(t, Scores(&buf, scores, false, 0))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, game.SquareCount)
	assert.True(t, strings.HasPrefix(lines[0], "a1 "))
	assert.Equal(t, game.SquareCount, strings.Count(lines[63], block))

	assert.Error(t, Scores(&buf, make([]float32, 100), false, 0))
}

func TestBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Board(&buf, chess.NewGame().Position(), chess.E2))
	out := buf.String()
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "8 "))
	assert.Contains(t, lines[4], "- - - - - - - -")
	assert.Contains(t, out, Color(chess.WhitePawn.String(), highlight))
	assert.Contains(t, out, "White to move")
}
