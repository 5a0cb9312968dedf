package mana

// Color is one of the six mana colors a pool tracks.
type Color string

const (
	White     Color = "white"
	Blue      Color = "blue"
	Black     Color = "black"
	Red       Color = "red"
	Green     Color = "green"
	Colorless Color = "colorless"
)

// Colors lists every color in display order.
var Colors = []Color{White, Blue, Black, Red, Green, Colorless}

// Valid reports whether c is one of the six tracked colors.
func (c Color) Valid() bool {
	switch c {
	case White, Blue, Black, Red, Green, Colorless:
		return true
	}
	return false
}

// Pool tracks a player's floating mana, one non-negative count per color.
// Pool is a plain value: game state owns exactly one copy per player and
// snapshots clone it, so no locking is needed.
type Pool struct {
	White     int `json:"white"`
	Blue      int `json:"blue"`
	Black     int `json:"black"`
	Red       int `json:"red"`
	Green     int `json:"green"`
	Colorless int `json:"colorless"`
}

// Get returns the count for a color, zero for unknown colors.
func (p Pool) Get(color Color) int {
	switch color {
	case White:
		return p.White
	case Blue:
		return p.Blue
	case Black:
		return p.Black
	case Red:
		return p.Red
	case Green:
		return p.Green
	case Colorless:
		return p.Colorless
	}
	return 0
}

// Adjust adds delta (positive or negative) to a color, floored at zero.
// Unknown colors leave the pool unchanged.
func (p Pool) Adjust(color Color, delta int) Pool {
	next := p.Get(color) + delta
	if next < 0 {
		next = 0
	}
	switch color {
	case White:
		p.White = next
	case Blue:
		p.Blue = next
	case Black:
		p.Black = next
	case Red:
		p.Red = next
	case Green:
		p.Green = next
	case Colorless:
		p.Colorless = next
	}
	return p
}

// Total returns the sum over all six colors.
func (p Pool) Total() int {
	return p.White + p.Blue + p.Black + p.Red + p.Green + p.Colorless
}

// Reset returns an empty pool.
func (p Pool) Reset() Pool {
	return Pool{}
}
