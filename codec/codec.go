// Package codec converts moves to network labels and network scores back to moves.
//
// Two label forms exist. The two-hot form is 128 wide: the from square at
// index from, the to square at index 64+to. The class form is the single
// integer from*64+to in [0, 4096). Squares are numbered as in game.Squares.
package codec

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"

	"github.com/movenet/game"
)

const (
	// TwoHotWidth is the width of a two-hot label and of the matching score vector.
	TwoHotWidth = 2 * game.SquareCount
	// ClassCount is the number of move classes and the width of the matching score vector.
	ClassCount = game.SquareCount * game.SquareCount
)

var (
	// ErrNoLegalMove is returned when decoding against a position without legal moves.
	// Callers are expected to check for the end of the game first.
	ErrNoLegalMove = errors.New("no legal move in position")

	// ErrDegenerateDistribution is returned by the sampling decoder when the
	// reweighted scores cannot form a distribution.
	ErrDegenerateDistribution = errors.New("degenerate move distribution")
)

// EncodeTwoHot encodes m as a 128 wide two-hot vector.
func EncodeTwoHot(m game.Move) []float32 {
	out := make([]float32, TwoHotWidth)
	out[m.From] = 1
	out[game.SquareCount+int(m.To)] = 1
	return out
}

// EncodeClass encodes m as its class index.
func EncodeClass(m game.Move) int {
	return int(m.From)*game.SquareCount + int(m.To)
}

// DecodeClass is the inverse of EncodeClass.
func DecodeClass(class int) game.Move {
	return game.Move{
		From: chess.Square(class / game.SquareCount),
		To:   chess.Square(class % game.SquareCount),
	}
}

// DecodeUnconstrained picks the strongest from square and the strongest to
// square of a two-hot score vector independently. The result is not checked
// against any position and may not even be a legal chess move.
func DecodeUnconstrained(scores []float32) (game.Move, error) {
	if len(scores) != TwoHotWidth {
		return game.ResignMove, &game.LengthError{What: "two-hot scores", Got: len(scores), Want: TwoHotWidth}
	}
	from := vecf32.Argmax(scores[:game.SquareCount])
	to := vecf32.Argmax(scores[game.SquareCount:])
	return game.Move{From: chess.Square(from), To: chess.Square(to)}, nil
}

// DecodeLegalArgmax returns the legal move of pos whose class scores highest.
func DecodeLegalArgmax(scores []float32, pos game.Position) (game.Move, error) {
	if len(scores) != ClassCount {
		return game.ResignMove, &game.LengthError{What: "class scores", Got: len(scores), Want: ClassCount}
	}
	cands := candidates(pos)
	if len(cands) == 0 {
		return game.ResignMove, ErrNoLegalMove
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if scores[EncodeClass(cands[i])] > scores[EncodeClass(cands[best])] {
			best = i
		}
	}
	return cands[best], nil
}

// candidates lists the legal moves of pos with one entry per (from, to) pair.
// Promotions collapse to the queen promotion since labels carry no piece.
func candidates(pos game.Position) []game.Move {
	legal := pos.ValidMoves()
	out := make([]game.Move, 0, len(legal))
	seen := make(map[int]int, len(legal))
	for _, lm := range legal {
		m := game.FromChess(lm)
		class := EncodeClass(m)
		if i, ok := seen[class]; ok {
			if m.Promo == chess.Queen {
				out[i] = m
			}
			continue
		}
		seen[class] = len(out)
		out = append(out, m)
	}
	return out
}
