package components

// Direction is the last movement heading of an animal.
type Direction uint8

const (
	DirNone Direction = iota
	DirN
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// DirectionOf returns the compass direction of a grid delta (y grows south).
func DirectionOf(dx, dy int) Direction {
	sx, sy := Sign(dx), Sign(dy)
	switch {
	case sx == 0 && sy < 0:
		return DirN
	case sx > 0 && sy < 0:
		return DirNE
	case sx > 0 && sy == 0:
		return DirE
	case sx > 0 && sy > 0:
		return DirSE
	case sx == 0 && sy > 0:
		return DirS
	case sx < 0 && sy > 0:
		return DirSW
	case sx < 0 && sy == 0:
		return DirW
	case sx < 0 && sy < 0:
		return DirNW
	}
	return DirNone
}

// Chebyshev returns the king-move distance between two positions.
func (p Position) Chebyshev(o Position) int {
	return max(Abs(p.X-o.X), Abs(p.Y-o.Y))
}

// Add offsets a position.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Sign returns -1, 0 or 1.
func Sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Abs returns the absolute value of an int.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
