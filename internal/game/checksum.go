package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

// Checksum computes a deterministic digest of the game state. Two states
// that differ only in map iteration order hash identically, so the digest
// can be used to detect real changes (e.g. to skip rebroadcasting an
// unchanged snapshot) and to spot divergence between peers.
func (s *GameState) Checksum() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%s|%t\n",
		s.Settings.Layout, s.Settings.PlayArea, s.FocusedOpponent, s.Rotated)
	writeSortedInts(&buf, "HANDHEIGHT", s.HandHeights)
	writeSortedInts(&buf, "CARDSIZE", s.CardSizes)

	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%d\n", p.ID, p.Name, p.Color, p.Life)
		fmt.Fprintf(&buf, "MANA:%d|%d|%d|%d|%d|%d\n",
			p.Mana.White, p.Mana.Blue, p.Mana.Black, p.Mana.Red, p.Mana.Green, p.Mana.Colorless)
		writeSortedInts(&buf, "PCOUNTER", p.Counters)

		// Zones are written in declaration order; card order within a
		// zone is meaningful (library order, battlefield stacking) and is
		// preserved as is.
		p.Zones(func(zone ZoneKind, row int, cards *[]*card.Card) {
			for _, c := range *cards {
				// %g renders the shortest exact representation, so any
				// coordinate change, however small, changes the digest.
				pos := "-"
				if c.X != nil && c.Y != nil {
					pos = fmt.Sprintf("%g,%g", *c.X, *c.Y)
				}
				fmt.Fprintf(&buf, "CARD:%s|%d|%s|%s|%t|%t|%s\n",
					zone, row, c.InstanceID, c.ID, c.Tapped, c.Flipped, pos)
				writeSortedInts(&buf, "COUNTER", c.Counters)
				writeSortedInts(&buf, "CUSTOM", c.CustomCounters)
			}
		})
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

func writeSortedInts(buf *bytes.Buffer, tag string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "  %s:%s=%d\n", tag, k, m[k])
	}
}
