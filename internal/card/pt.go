package card

import (
	"strconv"

	"github.com/deckforge/tabletop-server-go/internal/game/counters"
)

// DisplayPowerToughness returns the card's effective power and toughness
// for display: printed values plus the contribution of every boost-shaped
// counter ("<int>/<int>" labels) in both counter collections. Printed
// values that do not parse as integers, such as "*", count as zero. The
// derivation never mutates stored counters.
func (c *Card) DisplayPowerToughness() (power, toughness int) {
	power = parsePrinted(c.Power)
	toughness = parsePrinted(c.Toughness)

	for _, set := range []counters.Set{counters.Set(c.Counters), counters.Set(c.CustomCounters)} {
		boost := set.SumBoosts()
		power += boost.Power
		toughness += boost.Toughness
	}
	return power, toughness
}

func parsePrinted(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
