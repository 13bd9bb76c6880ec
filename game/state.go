package game

import (
	"fmt"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

const (
	RowNum = 8
	ColNum = 8

	// SquareCount is the number of squares addressed by the encodings.
	SquareCount = RowNum * ColNum
	// BlockWidth is the width of one square block: empty flag + 2 colours x 6 piece types.
	BlockWidth = 1 + 2*6
	// InputLength is the width of an encoded board.
	InputLength = 1 + SquareCount*BlockWidth
)

// Move is a from/to square pair. Promo is only filled in when the move came
// from the rules engine; the encodings never carry it.
type Move struct {
	From  chess.Square
	To    chess.Square
	Promo chess.PieceType
}

// ResignMove is returned by players that could not produce a move.
var ResignMove = Move{From: chess.NoSquare, To: chess.NoSquare}

// FromChess converts a rules engine move.
func FromChess(m *chess.Move) Move {
	return Move{From: m.S1(), To: m.S2(), Promo: m.Promo()}
}

// Valid reports whether both squares are on the board.
func (m Move) Valid() bool {
	return m.From >= chess.A1 && m.From <= chess.H8 && m.To >= chess.A1 && m.To <= chess.H8
}

// String returns the move in UCI notation.
func (m Move) String() string {
	if !m.Valid() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	switch m.Promo {
	case chess.Queen:
		s += "q"
	case chess.Rook:
		s += "r"
	case chess.Bishop:
		s += "b"
	case chess.Knight:
		s += "n"
	}
	return s
}

// ParseMove parses a move in UCI notation, e.g. "e2e4" or "e7e8q".
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return ResignMove, errors.Errorf("bad move %q", s)
	}
	from, ok := squareNames[s[0:2]]
	if !ok {
		return ResignMove, errors.Errorf("bad from square in %q", s)
	}
	to, ok := squareNames[s[2:4]]
	if !ok {
		return ResignMove, errors.Errorf("bad to square in %q", s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			m.Promo = chess.Queen
		case 'r':
			m.Promo = chess.Rook
		case 'b':
			m.Promo = chess.Bishop
		case 'n':
			m.Promo = chess.Knight
		default:
			return ResignMove, errors.Errorf("bad promotion piece in %q", s)
		}
	}
	return m, nil
}

var squareNames = func() map[string]chess.Square {
	m := make(map[string]chess.Square, SquareCount)
	for _, sq := range Squares {
		m[sq.String()] = sq
	}
	return m
}()

// Position is the read-only board view the encoders and decoders need.
// *chess.Position satisfies it.
type Position interface {
	Board() *chess.Board       // piece placement
	Turn() chess.Color         // side to move
	ValidMoves() []*chess.Move // legal moves, empty at checkmate or stalemate
}

// State is a game in progress, as driven by the play loops.
type State interface {
	Position

	MoveNumber() int // number of half moves played so far.
	Position() *chess.Position

	// Meta-game stuff
	Ended() (ended bool, winner chess.Color) // has the game ended? if yes, then who's the winner?
	Outcome() chess.Outcome
	Method() chess.Method // how the game ended

	// interactions
	Resolve(m Move) (*chess.Move, bool) // find the legal move matching m.
	Apply(m Move) error                 // plays m. Fails if m is not legal.
	Reset()                             // reset state.

	Clone() State
	ShowBoard() string
}

// LengthError is raised when an encoded vector does not have the width its
// consumers hard-code.
type LengthError struct {
	What string
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s has length %d, want %d", e.What, e.Got, e.Want)
}
