package hex

// Directions for axial neighbors in pointy-top orientation.
// Consecutive entries are one Right turn apart.
var Directions = [6]Axial{
	{+1, 0}, {+1, -1}, {0, -1}, {-1, 0}, {-1, +1}, {0, +1},
}

// Direction indexes Directions.
type Direction int

// Angle is a turn relative to a heading, measured in sixths of a full turn.
type Angle int

const (
	Forward Angle = iota
	Right
	RightBack
	Back
	LeftBack
	Left
)

// AllDirections lists every direction in canonical order.
func AllDirections() [6]Direction {
	return [6]Direction{0, 1, 2, 3, 4, 5}
}

// Vector returns the unit offset for d.
func (d Direction) Vector() Axial { return Directions[mod6(int(d))] }

// Rotate turns d by the given angle.
func (d Direction) Rotate(a Angle) Direction { return Direction(mod6(int(d) + int(a))) }

// Sub returns the turn that takes heading from to heading d.
func (d Direction) Sub(from Direction) Angle { return Angle(mod6(int(d) - int(from))) }

func (a Angle) String() string {
	switch a {
	case Forward:
		return "forward"
	case Right:
		return "right"
	case RightBack:
		return "right-back"
	case Back:
		return "back"
	case LeftBack:
		return "left-back"
	case Left:
		return "left"
	}
	return "invalid"
}

func mod6(v int) int {
	v %= 6
	if v < 0 {
		v += 6
	}
	return v
}
