package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/models"
	"murajaa-backend/internal/repository"
	"murajaa-backend/internal/session"
)

type DeckHandler struct {
	deckRepo   *repository.DeckRepo
	reviewRepo *repository.ReviewRepo
	dueCounts  *DueCountCache
	clock      session.Clock
}

func NewDeckHandler(deckRepo *repository.DeckRepo, reviewRepo *repository.ReviewRepo, dueCounts *DueCountCache, clock session.Clock) *DeckHandler {
	return &DeckHandler{
		deckRepo:   deckRepo,
		reviewRepo: reviewRepo,
		dueCounts:  dueCounts,
		clock:      clock,
	}
}

func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	deck := &models.Deck{
		UserID: middleware.GetUserID(r.Context()),
		Name:   req.Name,
	}
	if err := h.deckRepo.Create(r.Context(), deck); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create deck", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"deck": deck})
}

func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	decks, err := h.deckRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch decks", r))
		return
	}

	counts, err := h.dueCounts.Get(r.Context(), userID, h.clock.Now())
	if err == nil {
		for _, d := range decks {
			d.DueCount = counts[d.ID]
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, _ := h.deckRepo.GetCardsByDeck(r.Context(), deck.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck":  deck,
		"cards": cards,
	})
}

func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	if err := h.deckRepo.Delete(r.Context(), deck.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck deleted"})
}

// CreateCard inserts the card and, in the same request, its review record.
// Every card enters the schedule immediately due.
func (h *DeckHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	var req models.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	card := &models.Card{
		DeckID:          deck.ID,
		English:         req.English,
		Arabic:          req.Arabic,
		Transliteration: req.Transliteration,
		AudioURL:        req.AudioURL,
	}
	if err := h.deckRepo.CreateCard(r.Context(), card); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create card", r))
		return
	}

	review, err := h.reviewRepo.CreateForCard(r.Context(), deck.UserID, card.ID, h.clock.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create review record", r))
		return
	}

	h.dueCounts.Invalidate(r.Context(), deck.UserID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"card":   card,
		"review": review,
	})
}

func (h *DeckHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, err := h.deckRepo.GetCardsByDeck(r.Context(), deck.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

func (h *DeckHandler) ownedDeck(w http.ResponseWriter, r *http.Request) (*models.Deck, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck ID", r))
		return nil, false
	}

	deck, err := h.deckRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return nil, false
	}

	if deck.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return deck, true
}
