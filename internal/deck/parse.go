package deck

import (
	"regexp"
	"strconv"
	"strings"
)

// Identifier names a card to look up in the card data source: by name
// alone, or pinned to an exact printing by set code and collector number.
type Identifier struct {
	Name            string `json:"name,omitempty"`
	Set             string `json:"set,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
}

// Key returns a normalized deduplication key for the identifier.
func (id Identifier) Key() string {
	if id.Set != "" && id.CollectorNumber != "" {
		return strings.ToLower(id.Set) + "|" + strings.ToLower(id.CollectorNumber)
	}
	return "name|" + strings.ToLower(id.Name)
}

func (id Identifier) String() string {
	if id.Set != "" && id.CollectorNumber != "" {
		return id.Name + " (" + strings.ToUpper(id.Set) + ") " + id.CollectorNumber
	}
	return id.Name
}

// deckLine matches "2 Forest", "1x Sol Ring" and the pinned form
// "1 Island (WAR) 123".
var deckLine = regexp.MustCompile(`^(\d+)x?\s+(.+?)(?:\s+\(([A-Za-z0-9]{2,6})\)\s+(\S+))?$`)

// ParseList converts raw decklist text into one Identifier per physical
// copy, in list order. Blank lines and section headers that do not look
// like card lines are collected into skipped and do not fail the parse.
func ParseList(text string) (ids []Identifier, skipped []string) {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		m := deckLine.FindStringSubmatch(line)
		if m == nil {
			skipped = append(skipped, line)
			continue
		}
		count, err := strconv.Atoi(m[1])
		if err != nil || count <= 0 {
			skipped = append(skipped, line)
			continue
		}
		id := Identifier{
			Name:            m[2],
			Set:             strings.ToLower(m[3]),
			CollectorNumber: m[4],
		}
		for i := 0; i < count; i++ {
			ids = append(ids, id)
		}
	}
	return ids, skipped
}
