package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListBasic(t *testing.T) {
	ids, skipped := ParseList("2 Forest\n1 Island (WAR) 123")
	require.Len(t, ids, 3)
	assert.Empty(t, skipped)

	assert.Equal(t, Identifier{Name: "Forest"}, ids[0])
	assert.Equal(t, Identifier{Name: "Forest"}, ids[1])
	assert.Equal(t, Identifier{Name: "Island", Set: "war", CollectorNumber: "123"}, ids[2])
}

func TestParseListMultiplicityAndX(t *testing.T) {
	ids, _ := ParseList("4x Lightning Bolt")
	require.Len(t, ids, 4)
	assert.Equal(t, "Lightning Bolt", ids[0].Name)
}

func TestParseListSkipsNoise(t *testing.T) {
	ids, skipped := ParseList("Deck\n\n// lands\n# comment\n3 Swamp\nSideboard")
	require.Len(t, ids, 3)
	assert.Equal(t, []string{"Deck", "Sideboard"}, skipped)
}

func TestParseListNamesWithParens(t *testing.T) {
	// A parenthesized word that is not a set/number pin stays in the name.
	ids, _ := ParseList("1 Borrowing 100,000 Arrows")
	require.Len(t, ids, 1)
	assert.Equal(t, "Borrowing 100,000 Arrows", ids[0].Name)

	ids, _ = ParseList("2 Fire // Ice (APC) 128")
	require.Len(t, ids, 2)
	assert.Equal(t, "Fire // Ice", ids[0].Name)
	assert.Equal(t, "apc", ids[0].Set)
	assert.Equal(t, "128", ids[0].CollectorNumber)
}

func TestIdentifierKeyDeduplicates(t *testing.T) {
	a := Identifier{Name: "forest"}
	b := Identifier{Name: "Forest"}
	assert.Equal(t, a.Key(), b.Key())

	pinned := Identifier{Name: "Island", Set: "WAR", CollectorNumber: "123"}
	pinned2 := Identifier{Name: "island", Set: "war", CollectorNumber: "123"}
	assert.Equal(t, pinned.Key(), pinned2.Key())
	assert.NotEqual(t, a.Key(), pinned.Key())
}
