package board

import (
	"fmt"
	"math/rand/v2"

	"github.com/gravitas-games/haxagon/internal/hex"
)

// Marble is the color of a piece on the board.
type Marble uint8

const (
	Red Marble = iota
	Green
	Blue
	Yellow
	Cyan
	Purple
	Pink
)

// MarbleColors is the number of distinct marble colors.
const MarbleColors = 7

var marbleNames = [MarbleColors]string{"red", "green", "blue", "yellow", "cyan", "purple", "pink"}

// RandomMarble draws uniformly from the first n colors.
func RandomMarble(rng *rand.Rand, n int) Marble {
	n = min(max(n, 1), MarbleColors)
	return Marble(rng.IntN(n))
}

// Next returns the following color in a fixed rotation over all colors.
// Placement retries walk this rotation: with seven colors and only six
// neighbors some color always fits.
func (m Marble) Next() Marble {
	return (m + 1) % MarbleColors
}

func (m Marble) String() string {
	if int(m) < MarbleColors {
		return marbleNames[m]
	}
	return fmt.Sprintf("marble(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Marble) MarshalText() ([]byte, error) {
	if int(m) >= MarbleColors {
		return nil, fmt.Errorf("unknown marble %d", uint8(m))
	}
	return []byte(marbleNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Marble) UnmarshalText(text []byte) error {
	for i, name := range marbleNames {
		if name == string(text) {
			*m = Marble(i)
			return nil
		}
	}
	return fmt.Errorf("unknown marble %q", text)
}

// Layout maps occupied cells to their marbles.
type Layout map[hex.Axial]Marble

// Marble reports the marble at c.
func (l Layout) Marble(c hex.Axial) (Marble, bool) {
	m, ok := l[c]
	return m, ok
}
