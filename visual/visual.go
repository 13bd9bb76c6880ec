// Package visual prints encoded boards and network outputs as terminal grids.
// Every activation is drawn as a grey block whose brightness is the value,
// or as the value itself when numbers are requested.
package visual

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/movenet/codec"
	"github.com/movenet/game"
)

const block = "██"

// Neuron renders one activation. v must lie in [0, 1].
func Neuron(v float32, numbers bool) (string, error) {
	if math32.IsNaN(v) || v < 0 || v > 1 {
		return "", errors.Errorf("activation %v is outside [0, 1]", v)
	}
	if numbers {
		return fmt.Sprintf("%.2f", v), nil
	}
	return Color(block, grey(v)), nil
}

// Color wraps s in a 24-bit ANSI foreground colour.
func Color(s string, rgb [3]uint8) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", rgb[0], rgb[1], rgb[2], s)
}

func grey(v float32) [3]uint8 {
	c := uint8(v * 255)
	return [3]uint8{c, c, c}
}

// Input prints a feature vector: the side to move on its own line, then one
// line of 13 cells per square with a blank line after every rank.
func Input(w io.Writer, features []float32) error {
	if len(features) != game.InputLength {
		return &game.LengthError{What: "features", Got: len(features), Want: game.InputLength}
	}
	bw := bufio.NewWriter(w)
	s, err := Neuron(features[0], false)
	if err != nil {
		return err
	}
	fmt.Fprintln(bw, s)
	for i, sq := range game.Squares {
		off := 1 + i*game.BlockWidth
		for _, v := range features[off : off+game.BlockWidth] {
			if s, err = Neuron(v, false); err != nil {
				return errors.Wrapf(err, "square %v", sq)
			}
			bw.WriteString(s)
		}
		bw.WriteByte('\n')
		if sq.File() == chess.FileH {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// TwoHot prints a two-hot score vector as a from grid and a to grid side by
// side, rank 8 on top.
func TwoHot(w io.Writer, scores []float32) error {
	if len(scores) != codec.TwoHotWidth {
		return &game.LengthError{What: "two-hot scores", Got: len(scores), Want: codec.TwoHotWidth}
	}
	var sb strings.Builder
	for rank := game.RowNum - 1; rank >= 0; rank-- {
		for half := 0; half < 2; half++ {
			if half == 1 {
				sb.WriteByte('\t')
			}
			fmt.Fprintf(&sb, "%d ", rank+1)
			row := scores[half*game.SquareCount+rank*game.ColNum:][:game.ColNum]
			for _, v := range row {
				s, err := Neuron(v, false)
				if err != nil {
					return err
				}
				sb.WriteString(s)
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(fileLabels + "\t" + fileLabels + "\n")
	_, err := io.WriteString(w, sb.String())
	return errors.WithStack(err)
}

const fileLabels = "  a b c d e f g h "

// Scores prints a class score vector with one line per from square, each
// line holding the 64 to-square cells in square order. With numbers set only
// the k best classes are listed instead.
func Scores(w io.Writer, scores []float32, numbers bool, k int) error {
	if len(scores) != codec.ClassCount {
		return &game.LengthError{What: "class scores", Got: len(scores), Want: codec.ClassCount}
	}
	bw := bufio.NewWriter(w)
	if numbers {
		ranked, err := codec.Rank(scores, k)
		if err != nil {
			return err
		}
		for _, s := range ranked {
			fmt.Fprintf(bw, "%s %.4f\n", s.Move, s.Score)
		}
		return bw.Flush()
	}
	for from, sq := range game.Squares {
		bw.WriteString(sq.String() + " ")
		for _, v := range scores[from*game.SquareCount:][:game.SquareCount] {
			s, err := Neuron(v, false)
			if err != nil {
				return errors.Wrapf(err, "from %v", sq)
			}
			bw.WriteString(s)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

var highlight = [3]uint8{230, 180, 40}

// Board prints the position with unicode pieces, rank 8 on top. Marked
// squares are coloured.
func Board(w io.Writer, pos game.Position, marks ...chess.Square) error {
	marked := make(map[chess.Square]bool, len(marks))
	for _, sq := range marks {
		marked[sq] = true
	}
	b := pos.Board()
	var sb strings.Builder
	for rank := game.RowNum - 1; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < game.ColNum; file++ {
			sq := game.Squares[rank*game.ColNum+file]
			cell := "-"
			if p := b.Piece(sq); p != chess.NoPiece {
				cell = p.String()
			}
			if marked[sq] {
				cell = Color(cell, highlight)
			}
			sb.WriteString(cell + " ")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	fmt.Fprintf(&sb, "%v to move\n", pos.Turn().Name())
	_, err := io.WriteString(w, sb.String())
	return errors.WithStack(err)
}
