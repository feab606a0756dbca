package hex

// Axial represents axial coordinates (q, r) for pointy-top orientation.
type Axial struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Cube represents cube coordinates (x, y, z) with x+y+z=0.
type Cube struct {
	X int
	Y int
	Z int
}

// Origin is the center of every board.
var Origin = Axial{}

// Add returns a+b in axial space.
func (a Axial) Add(b Axial) Axial { return Axial{a.Q + b.Q, a.R + b.R} }

// Sub returns a-b in axial space.
func (a Axial) Sub(b Axial) Axial { return Axial{a.Q - b.Q, a.R - b.R} }

// Mul scales an axial vector by k.
func (a Axial) Mul(k int) Axial { return Axial{a.Q * k, a.R * k} }

// Neighbor returns the adjacent cell in direction d.
func (a Axial) Neighbor(d Direction) Axial { return a.Add(d.Vector()) }

// Neighbors returns the six adjacent cells in canonical direction order.
func (a Axial) Neighbors() [6]Axial {
	var out [6]Axial
	for i, d := range Directions {
		out[i] = a.Add(d)
	}
	return out
}

// Distance returns the hex distance from a to b.
func (a Axial) Distance(b Axial) int { return DistanceAxial(a, b) }

// DirectionTo returns the direction leading from a to an adjacent cell b.
func (a Axial) DirectionTo(b Axial) (Direction, bool) {
	delta := b.Sub(a)
	for i, d := range Directions {
		if d == delta {
			return Direction(i), true
		}
	}
	return 0, false
}

// DirectionFromCenterCW reports which sextant of the plane the coordinate lies in.
// Sextant d starts at the ring corner d*k and runs towards the corner of d+1,
// excluding that corner. The origin has no direction.
func (a Axial) DirectionFromCenterCW() (Direction, bool) {
	k := DistanceAxial(Origin, a)
	if k == 0 {
		return 0, false
	}
	for d := Direction(0); d < 6; d++ {
		step := d.Rotate(RightBack).Vector()
		off := a.Sub(d.Vector().Mul(k))
		for j := 0; j < k; j++ {
			if off == step.Mul(j) {
				return d, true
			}
		}
	}
	// unreachable: every non-origin cell sits on exactly one ring side
	panic("hex: coordinate outside every sextant")
}

// ToCube converts axial to cube.
func (a Axial) ToCube() Cube {
	x := a.Q
	z := a.R
	y := -x - z
	return Cube{X: x, Y: y, Z: z}
}

// DistanceAxial returns hex distance between two axial coords.
func DistanceAxial(a, b Axial) int {
	return DistanceCube(a.ToCube(), b.ToCube())
}

// DistanceCube returns hex distance between two cube coords.
func DistanceCube(a, b Cube) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	dz := abs(a.Z - b.Z)
	if dx > dy && dx > dz {
		return dx
	}
	if dy > dz {
		return dy
	}
	return dz
}

// AxialToCell maps a coordinate onto a character grid where every hex is two
// columns wide and one row tall, centered on (0, 0).
func AxialToCell(a Axial) (col, row int) {
	return 2*a.Q + a.R, a.R
}

// CellToAxial is the inverse of AxialToCell. Cells between two hexes report false.
func CellToAxial(col, row int) (Axial, bool) {
	q2 := col - row
	if q2%2 != 0 {
		return Axial{}, false
	}
	return Axial{Q: q2 / 2, R: row}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
