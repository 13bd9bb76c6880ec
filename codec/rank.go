package codec

import (
	"sort"

	"github.com/notnil/chess"

	"github.com/movenet/game"
)

// Scored is a move with the activation the network gave it.
type Scored struct {
	Move  game.Move
	Score float32
}

// Rank returns the k best moves of a class score vector, best first.
// Ties keep class order. k <= 0 returns every class.
func Rank(scores []float32, k int) ([]Scored, error) {
	if len(scores) != ClassCount {
		return nil, &game.LengthError{What: "class scores", Got: len(scores), Want: ClassCount}
	}
	out := make([]Scored, len(scores))
	for class, s := range scores {
		out[class] = Scored{Move: DecodeClass(class), Score: s}
	}
	return top(out, k), nil
}

// RankTwoHot returns the k best (from, to) pairs of a two-hot score vector,
// each scored by the product of its from and to activations.
func RankTwoHot(scores []float32, k int) ([]Scored, error) {
	if len(scores) != TwoHotWidth {
		return nil, &game.LengthError{What: "two-hot scores", Got: len(scores), Want: TwoHotWidth}
	}
	out := make([]Scored, 0, ClassCount)
	for from := 0; from < game.SquareCount; from++ {
		for to := 0; to < game.SquareCount; to++ {
			out = append(out, Scored{
				Move:  game.Move{From: chess.Square(from), To: chess.Square(to)},
				Score: scores[from] * scores[game.SquareCount+to],
			})
		}
	}
	return top(out, k), nil
}

// RankLegal returns the candidate moves of pos ordered by class score.
func RankLegal(scores []float32, pos game.Position) ([]Scored, error) {
	if len(scores) != ClassCount {
		return nil, &game.LengthError{What: "class scores", Got: len(scores), Want: ClassCount}
	}
	cands := candidates(pos)
	out := make([]Scored, len(cands))
	for i, m := range cands {
		out[i] = Scored{Move: m, Score: scores[EncodeClass(m)]}
	}
	return top(out, 0), nil
}

func top(s []Scored, k int) []Scored {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
	if k > 0 && k < len(s) {
		s = s[:k]
	}
	return s
}
