package bingo

type LineType string

const (
	Row      LineType = "row"
	Column   LineType = "column"
	Diagonal LineType = "diagonal"
)

// NumSquares is the number of squares on a 3x3 board.
const NumSquares = 9

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// BingoLines returns the 8 winning lines in their fixed order: three rows,
// three columns, then the two diagonals. The returned slice is a fresh copy.
func BingoLines() [][3]int {
	out := make([][3]int, len(lines))
	copy(out, lines[:])
	return out
}

// LineTypeFor classifies a line by its position in BingoLines.
func LineTypeFor(lineIdx int) LineType {
	switch {
	case lineIdx < 3:
		return Row
	case lineIdx < 6:
		return Column
	}
	return Diagonal
}
