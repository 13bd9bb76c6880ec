package game

import "github.com/notnil/chess"

// Squares lists the board squares in encoding order: a1, b1, ..., h1, a2, ..., h8.
// Index i of a board block and square i of a move label always refer to Squares[i].
var Squares = func() (sq [SquareCount]chess.Square) {
	for i := range sq {
		sq[i] = chess.Square(i)
	}
	return sq
}()

// pieceOffset maps a piece type to its slot within a colour's six slots:
// pawn, knight, bishop, rook, queen, king.
var pieceOffset = map[chess.PieceType]int{
	chess.Pawn:   0,
	chess.Knight: 1,
	chess.Bishop: 2,
	chess.Rook:   3,
	chess.Queen:  4,
	chess.King:   5,
}

// PieceIndex returns the index of p inside a square block, 1..12.
// Empty squares (and NoPiece) map to 0.
func PieceIndex(p chess.Piece) int {
	off, ok := pieceOffset[p.Type()]
	if !ok {
		return 0
	}
	switch p.Color() {
	case chess.White:
		return 1 + off
	case chess.Black:
		return 1 + 6 + off
	}
	return 0
}

// EncodeBoard encodes a position as InputLength floats: the side to move
// (1 when white is to move) followed by one BlockWidth block per square.
func EncodeBoard(pos Position) []float32 {
	input := make([]float32, InputLength)
	if pos.Turn() == chess.White {
		input[0] = 1
	}
	board := pos.Board()
	for i, sq := range Squares {
		input[1+i*BlockWidth+PieceIndex(board.Piece(sq))] = 1
	}
	return input
}

// InputEncoder encodes game state to neural input format.
func InputEncoder(g State) []float32 {
	return EncodeBoard(g)
}

// PositionKey identifies a position by what EncodeBoard sees: the piece
// placement and the side to move. The remaining FEN fields are dropped, so
// transpositions share a key.
func PositionKey(pos *chess.Position) string {
	fen := pos.String()
	fields := 0
	for i := 0; i < len(fen); i++ {
		if fen[i] == ' ' {
			fields++
			if fields == 2 {
				return fen[:i]
			}
		}
	}
	return fen
}
