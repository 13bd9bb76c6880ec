package game

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Chess is a chess game driven by the play loops.
type Chess struct {
	history []*chess.Game
	start   func(*chess.Game)
}

// ChessGame returns a new Chess game state from the standard starting position.
func ChessGame() *Chess {
	return &Chess{history: []*chess.Game{chess.NewGame()}}
}

// ChessGameFromFEN returns a new Chess game state starting at fen.
func ChessGameFromFEN(fen string) (*Chess, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrapf(err, "parse FEN %q", fen)
	}
	return &Chess{history: []*chess.Game{chess.NewGame(opt)}, start: opt}, nil
}

func (g *Chess) current() *chess.Game { return g.history[len(g.history)-1] }

func (g *Chess) Position() *chess.Position { return g.current().Position() }
func (g *Chess) Board() *chess.Board       { return g.Position().Board() }
func (g *Chess) Turn() chess.Color         { return g.Position().Turn() }
func (g *Chess) ValidMoves() []*chess.Move { return g.Position().ValidMoves() }
func (g *Chess) Outcome() chess.Outcome    { return g.current().Outcome() }
func (g *Chess) Method() chess.Method      { return g.current().Method() }
func (g *Chess) MoveNumber() int           { return len(g.current().Moves()) }

// Ended reports whether the game is over and who won. Draws report chess.NoColor.
func (g *Chess) Ended() (bool, chess.Color) {
	switch g.Outcome() {
	case chess.WhiteWon:
		return true, chess.White
	case chess.BlackWon:
		return true, chess.Black
	case chess.Draw:
		return true, chess.NoColor
	}
	return false, chess.NoColor
}

// Resolve finds the legal move with the same squares as m. A move without a
// promotion piece resolves to the queen promotion.
func (g *Chess) Resolve(m Move) (*chess.Move, bool) {
	var found *chess.Move
	for _, lm := range g.ValidMoves() {
		if lm.S1() != m.From || lm.S2() != m.To {
			continue
		}
		switch lm.Promo() {
		case m.Promo:
			return lm, true
		case chess.Queen:
			if m.Promo == chess.NoPieceType {
				found = lm
			}
		}
	}
	return found, found != nil
}

// Apply plays m.
func (g *Chess) Apply(m Move) error {
	lm, ok := g.Resolve(m)
	if !ok {
		return errors.Errorf("illegal move %v in %v", m, g.Position())
	}
	next := g.current().Clone()
	if err := next.Move(lm); err != nil {
		return errors.WithStack(err)
	}
	g.history = append(g.history, next)
	return nil
}

// UndoLastMove takes back the last move. It is a no-op at the start.
func (g *Chess) UndoLastMove() {
	if len(g.history) > 1 {
		g.history = g.history[:len(g.history)-1]
	}
}

func (g *Chess) Reset() {
	if g.start != nil {
		g.history = []*chess.Game{chess.NewGame(g.start)}
		return
	}
	g.history = []*chess.Game{chess.NewGame()}
}

func (g *Chess) Clone() State {
	history := make([]*chess.Game, len(g.history))
	copy(history, g.history)
	return &Chess{history: history, start: g.start}
}

func (g *Chess) ShowBoard() string {
	return g.Board().Draw()
}
