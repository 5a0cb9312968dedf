package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
	"github.com/deckforge/tabletop-server-go/internal/repository"
)

// CardLookup is the slice of the card repository the relay's REST
// surface needs.
type CardLookup interface {
	FindBySetNumber(ctx context.Context, set, number string) (*card.Card, error)
	FindByName(ctx context.Context, name string) ([]*card.Card, error)
	SearchByName(ctx context.Context, query string, limit int) ([]*card.Card, error)
}

// CardHandler answers card queries from the local database so deck
// editors do not have to hit the public card API.
type CardHandler struct {
	cards  CardLookup
	logger *zap.Logger
}

// NewCardHandler builds the card query handler.
func NewCardHandler(cards CardLookup, logger *zap.Logger) *CardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardHandler{cards: cards, logger: logger}
}

// Routes returns the card query routes, mounted under /cards.
func (h *CardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/search", h.handleSearch)
	r.Get("/named", h.handleNamed)
	r.Get("/{set}/{number}", h.handlePrinting)
	return r
}

func (h *CardHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	cards, err := h.cards.SearchByName(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("card search failed", zap.String("query", query), zap.Error(err))
		http.Error(w, "card search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cards)
}

func (h *CardHandler) handleNamed(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing query parameter name", http.StatusBadRequest)
		return
	}
	cards, err := h.cards.FindByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.logger.Error("card lookup failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "card lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cards)
}

func (h *CardHandler) handlePrinting(w http.ResponseWriter, r *http.Request) {
	set := chi.URLParam(r, "set")
	number := chi.URLParam(r, "number")
	c, err := h.cards.FindBySetNumber(r.Context(), set, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.logger.Error("card lookup failed",
			zap.String("set", set),
			zap.String("number", number),
			zap.Error(err),
		)
		http.Error(w, "card lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, c)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
