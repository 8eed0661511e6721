package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/isdelr/slowmind-be/internal/services"
)

// QuoteHandler serves the motivational quotes.
type QuoteHandler struct {
	service services.QuoteServiceProvider
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(service services.QuoteServiceProvider) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// GetAll returns every quote.
func (h *QuoteHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.ListQuotes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// GetDaily returns today's quote. Caches may keep it until the next rotation.
func (h *QuoteHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.QuoteOfTheDay(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if maxAge := int(time.Until(quote.NextRotationAt).Seconds()); maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	}
	writeJSON(w, http.StatusOK, quote)
}
