package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/deck"
)

type memStore struct {
	byKey   map[string]*card.Card
	upserts int
}

func newMemStore(cards ...*card.Card) *memStore {
	m := &memStore{byKey: make(map[string]*card.Card)}
	for _, c := range cards {
		m.byKey[strings.ToLower(c.Set)+"|"+c.CollectorNumber] = c
	}
	return m
}

func (m *memStore) FindBySetNumber(_ context.Context, set, number string) (*card.Card, error) {
	if c, ok := m.byKey[strings.ToLower(set)+"|"+number]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) FindByName(_ context.Context, name string) ([]*card.Card, error) {
	var out []*card.Card
	for _, c := range m.byKey {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, c *card.Card) error {
	m.byKey[strings.ToLower(c.Set)+"|"+c.CollectorNumber] = c
	m.upserts++
	return nil
}

type stubRemote struct {
	cards []*card.Card
	calls int
}

func (s *stubRemote) FetchCards(_ context.Context, ids []deck.Identifier) ([]*card.Card, []deck.Identifier, error) {
	s.calls++
	var found []*card.Card
	var notFound []deck.Identifier
	for _, id := range ids {
		matched := false
		for _, c := range s.cards {
			if strings.EqualFold(c.Name, id.Name) ||
				(id.Set != "" && strings.EqualFold(c.Set, id.Set) && c.CollectorNumber == id.CollectorNumber) {
				found = append(found, c)
				matched = true
				break
			}
		}
		if !matched {
			notFound = append(notFound, id)
		}
	}
	return found, notFound, nil
}

func (s *stubRemote) FetchCardByURI(_ context.Context, uri string) (*card.Card, error) {
	for _, c := range s.cards {
		if c.ID == uri {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func TestCachingFetcherServesHitsWithoutRemote(t *testing.T) {
	forest := &card.Card{ID: "f1", Name: "Forest", Set: "war", CollectorNumber: "123"}
	store := newMemStore(forest)
	remote := &stubRemote{}
	cf := NewCachingFetcher(nil, remote, nil)
	cf.repo = store

	found, missing, err := cf.FetchCards(context.Background(), []deck.Identifier{
		{Set: "WAR", CollectorNumber: "123"},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Forest", found[0].Name)
	assert.Empty(t, missing)
	assert.Zero(t, remote.calls)
}

func TestCachingFetcherWritesThroughMisses(t *testing.T) {
	island := &card.Card{ID: "i1", Name: "Island", Set: "m21", CollectorNumber: "7"}
	store := newMemStore()
	remote := &stubRemote{cards: []*card.Card{island}}
	cf := NewCachingFetcher(nil, remote, nil)
	cf.repo = store

	found, missing, err := cf.FetchCards(context.Background(), []deck.Identifier{{Name: "Island"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Empty(t, missing)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 1, store.upserts)

	// Second import hits the cache.
	found, _, err = cf.FetchCards(context.Background(), []deck.Identifier{{Name: "Island"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, remote.calls)
}

func TestCachingFetcherReportsUnresolved(t *testing.T) {
	cf := NewCachingFetcher(nil, &stubRemote{}, nil)
	cf.repo = newMemStore()

	found, missing, err := cf.FetchCards(context.Background(), []deck.Identifier{{Name: "Nonexistent"}})
	require.NoError(t, err)
	assert.Empty(t, found)
	require.Len(t, missing, 1)
	assert.Equal(t, "Nonexistent", missing[0].Name)
}

func TestCachingFetcherPrefersExactNameMatch(t *testing.T) {
	full := &card.Card{ID: "fi1", Name: "Fire // Ice", Set: "apc", CollectorNumber: "128"}
	store := newMemStore(full)
	cf := NewCachingFetcher(nil, &stubRemote{}, nil)
	cf.repo = store

	found, _, err := cf.FetchCards(context.Background(), []deck.Identifier{{Name: "Fire // Ice"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Fire // Ice", found[0].Name)
}
