package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
)

// DefaultBaseURL is the public card data API root.
const DefaultBaseURL = "https://api.scryfall.com"

// MaxBatchSize is the largest identifier batch the collection endpoint
// accepts per call.
const MaxBatchSize = 75

// DefaultBatchSpacing is the required pause between consecutive batch
// calls per the API's rate-limit guidance.
const DefaultBatchSpacing = time.Second

// Client fetches card data from a Scryfall-compatible API. It implements
// deck.CardFetcher, splitting large lookups into rate-gated batches.
type Client struct {
	baseURL string
	http    *http.Client
	spacing time.Duration
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (used in tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBatchSpacing overrides the pause between batches.
func WithBatchSpacing(d time.Duration) Option {
	return func(c *Client) { c.spacing = d }
}

// NewClient creates a card data client.
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		spacing: DefaultBatchSpacing,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type collectionRequest struct {
	Identifiers []apiIdentifier `json:"identifiers"`
}

type apiIdentifier struct {
	Name            string `json:"name,omitempty"`
	Set             string `json:"set,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
}

type collectionResponse struct {
	Data     []apiCard       `json:"data"`
	NotFound []apiIdentifier `json:"not_found"`
}

type apiCard struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	TypeLine        string        `json:"type_line"`
	ManaCost        string        `json:"mana_cost"`
	OracleText      string        `json:"oracle_text"`
	Set             string        `json:"set"`
	CollectorNumber string        `json:"collector_number"`
	Power           string        `json:"power"`
	Toughness       string        `json:"toughness"`
	ImageURIs       *apiImageURIs `json:"image_uris"`
	CardFaces       []apiFace     `json:"card_faces"`
	AllParts        []apiPart     `json:"all_parts"`
}

type apiImageURIs struct {
	Normal string `json:"normal"`
	Large  string `json:"large"`
}

type apiFace struct {
	Name       string        `json:"name"`
	TypeLine   string        `json:"type_line"`
	ManaCost   string        `json:"mana_cost"`
	OracleText string        `json:"oracle_text"`
	Power      string        `json:"power"`
	Toughness  string        `json:"toughness"`
	ImageURIs  *apiImageURIs `json:"image_uris"`
}

type apiPart struct {
	Component string `json:"component"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
}

// FetchCards resolves a batch of identifiers against the collection
// endpoint. Batches beyond MaxBatchSize are split and spaced by the
// configured delay; ctx cancellation is honored between batches.
func (c *Client) FetchCards(ctx context.Context, ids []deck.Identifier) ([]*card.Card, []deck.Identifier, error) {
	var found []*card.Card
	var notFound []deck.Identifier

	for start := 0; start < len(ids); start += MaxBatchSize {
		if start > 0 {
			select {
			case <-time.After(c.spacing):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
		end := start + MaxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		data, missing, err := c.fetchBatch(ctx, ids[start:end])
		if err != nil {
			return nil, nil, err
		}
		found = append(found, data...)
		notFound = append(notFound, missing...)
	}

	c.logger.Debug("card lookup finished",
		zap.Int("requested", len(ids)),
		zap.Int("found", len(found)),
		zap.Int("not_found", len(notFound)),
	)
	return found, notFound, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []deck.Identifier) ([]*card.Card, []deck.Identifier, error) {
	req := collectionRequest{Identifiers: make([]apiIdentifier, len(ids))}
	for i, id := range ids {
		req.Identifiers[i] = apiIdentifier{
			Name:            id.Name,
			Set:             id.Set,
			CollectorNumber: id.CollectorNumber,
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("encode collection request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cards/collection", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("card collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("card collection request: unexpected status %d", resp.StatusCode)
	}

	var parsed collectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decode collection response: %w", err)
	}

	found := make([]*card.Card, len(parsed.Data))
	for i := range parsed.Data {
		found[i] = parsed.Data[i].toCard()
	}
	missing := make([]deck.Identifier, len(parsed.NotFound))
	for i, id := range parsed.NotFound {
		missing[i] = deck.Identifier{Name: id.Name, Set: id.Set, CollectorNumber: id.CollectorNumber}
	}
	return found, missing, nil
}

// FetchCardByURI fetches one card by its absolute API URI, used for meld
// results and exact printings.
func (c *Client) FetchCardByURI(ctx context.Context, uri string) (*card.Card, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("card fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("card fetch %s: not found", uri)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card fetch %s: unexpected status %d", uri, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed apiCard
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode card %s: %w", uri, err)
	}
	return parsed.toCard(), nil
}

func (a *apiCard) toCard() *card.Card {
	c := &card.Card{
		ID:              a.ID,
		Name:            a.Name,
		TypeLine:        a.TypeLine,
		ManaCost:        a.ManaCost,
		OracleText:      a.OracleText,
		Set:             a.Set,
		CollectorNumber: a.CollectorNumber,
		Power:           a.Power,
		Toughness:       a.Toughness,
	}
	if a.ImageURIs != nil {
		c.ImageURI = a.ImageURIs.Normal
	}
	for _, f := range a.CardFaces {
		face := card.Face{
			Name:       f.Name,
			TypeLine:   f.TypeLine,
			ManaCost:   f.ManaCost,
			OracleText: f.OracleText,
			Power:      f.Power,
			Toughness:  f.Toughness,
		}
		if f.ImageURIs != nil {
			face.ImageURI = f.ImageURIs.Normal
		}
		c.Faces = append(c.Faces, face)
	}
	// Double-faced cards carry their image on the faces only.
	if c.ImageURI == "" && len(c.Faces) > 0 {
		c.ImageURI = c.Faces[0].ImageURI
	}
	for _, p := range a.AllParts {
		c.RelatedParts = append(c.RelatedParts, card.RelatedPart{
			Component: p.Component,
			Name:      p.Name,
			URI:       p.URI,
		})
	}
	return c
}
