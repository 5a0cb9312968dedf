package card

import (
	"github.com/google/uuid"
)

// Face represents one printed face of a card. Single-faced cards have
// exactly one; transform and modal double-faced cards have two.
type Face struct {
	Name       string `json:"name"`
	TypeLine   string `json:"typeLine,omitempty"`
	ManaCost   string `json:"manaCost,omitempty"`
	OracleText string `json:"oracleText,omitempty"`
	Power      string `json:"power,omitempty"`
	Toughness  string `json:"toughness,omitempty"`
	ImageURI   string `json:"imageUri,omitempty"`
}

// RelatedPart points at a card linked to this one (e.g. the result of a
// meld pair), keyed by the data source's card URI.
type RelatedPart struct {
	Component string `json:"component"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
}

// Card is a card template plus the mutable per-copy state it carries once
// placed into a game. Template fields are fixed at import time; instance
// fields are regenerated at the start of every game.
type Card struct {
	// Template data.
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	TypeLine        string        `json:"typeLine,omitempty"`
	ManaCost        string        `json:"manaCost,omitempty"`
	OracleText      string        `json:"oracleText,omitempty"`
	Set             string        `json:"set,omitempty"`
	CollectorNumber string        `json:"collectorNumber,omitempty"`
	Power           string        `json:"power,omitempty"`
	Toughness       string        `json:"toughness,omitempty"`
	ImageURI        string        `json:"imageUri,omitempty"`
	Faces           []Face        `json:"faces,omitempty"`
	RelatedParts    []RelatedPart `json:"relatedParts,omitempty"`
	MeldResult      *Card         `json:"meldResult,omitempty"`
	Custom          bool          `json:"custom,omitempty"`

	// Instance state, valid only while the card sits in a game.
	InstanceID     string         `json:"instanceId"`
	Tapped         bool           `json:"tapped,omitempty"`
	Flipped        bool           `json:"flipped,omitempty"`
	Counters       map[string]int `json:"counters,omitempty"`
	CustomCounters map[string]int `json:"customCounters,omitempty"`
	X              *float64       `json:"x,omitempty"`
	Y              *float64       `json:"y,omitempty"`
}

// NewInstanceID returns a fresh instance identifier. Instance ids are
// unique per physical copy within a game and are never reused.
func NewInstanceID() string {
	return uuid.New().String()
}

// HasAlternateFace reports whether the card has a second face to flip to.
func (c *Card) HasAlternateFace() bool {
	return len(c.Faces) > 1
}

// IsMeldPart reports whether the card participates in a meld pair, i.e. it
// has a related part tagged as the meld result.
func (c *Card) IsMeldPart() bool {
	return c.MeldResultURI() != ""
}

// MeldResultURI returns the data-source URI of the meld result, or "" when
// the card is not part of a meld pair. A meld pair lists the result among
// its related parts; the result card lists itself there too, which is
// filtered out by name.
func (c *Card) MeldResultURI() string {
	for _, part := range c.RelatedParts {
		if part.Component == "meld_result" && part.Name != c.Name {
			return part.URI
		}
	}
	return ""
}

// WithCustomFace returns a copy of the card whose front image is replaced
// by the supplied URL. The copy is a new template: it gets a fresh id and
// is marked custom so deck files can distinguish it from printed cards.
func (c *Card) WithCustomFace(imageURL string) *Card {
	out := c.Clone()
	out.ID = uuid.New().String()
	out.ImageURI = imageURL
	if len(out.Faces) > 0 {
		out.Faces[0].ImageURI = imageURL
	}
	out.Custom = true
	return out
}

// ResetInstanceState returns the card to the state a copy has when a game
// begins: untapped, unflipped, no counters, no board position. The
// instance id is left alone; callers regenerate it separately.
func (c *Card) ResetInstanceState() {
	c.Tapped = false
	c.Flipped = false
	c.Counters = nil
	c.CustomCounters = nil
	c.X = nil
	c.Y = nil
}

// Clone creates a deep copy of the card, including instance state and any
// nested meld result.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	out := *c
	if c.Faces != nil {
		out.Faces = make([]Face, len(c.Faces))
		copy(out.Faces, c.Faces)
	}
	if c.RelatedParts != nil {
		out.RelatedParts = make([]RelatedPart, len(c.RelatedParts))
		copy(out.RelatedParts, c.RelatedParts)
	}
	out.MeldResult = c.MeldResult.Clone()
	out.Counters = cloneCounts(c.Counters)
	out.CustomCounters = cloneCounts(c.CustomCounters)
	if c.X != nil {
		x := *c.X
		out.X = &x
	}
	if c.Y != nil {
		y := *c.Y
		out.Y = &y
	}
	return &out
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
