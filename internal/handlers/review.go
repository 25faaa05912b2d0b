package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"murajaa-backend/internal/calendar"
	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/repository"
	"murajaa-backend/internal/session"
)

type ReviewHandler struct {
	reviewRepo   *repository.ReviewRepo
	clock        session.Clock
	defaultLimit int
	maxLimit     int
}

func NewReviewHandler(reviewRepo *repository.ReviewRepo, clock session.Clock, defaultLimit, maxLimit int) *ReviewHandler {
	return &ReviewHandler{
		reviewRepo:   reviewRepo,
		clock:        clock,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Due previews the due-set for the given decks without starting a session.
// The threshold is taken once at the start of the request.
func (h *ReviewHandler) Due(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	deckIDs, err := parseDeckIDs(r.URL.Query().Get("decks"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck ID in decks parameter", r))
		return
	}
	limit := h.parseLimit(r.URL.Query().Get("limit"))
	now := h.clock.Now()

	due, err := h.reviewRepo.SelectDue(r.Context(), userID, deckIDs, limit, now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch due reviews", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reviews":       due,
		"due_threshold": now,
	})
}

// Calendar returns per-day scheduled/completed counts for one month.
func (h *ReviewHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	now := h.clock.Now()
	anchor := now
	if month := r.URL.Query().Get("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "month must be formatted YYYY-MM", r))
			return
		}
		anchor = parsed
	}

	reviews, err := h.reviewRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch review schedule", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"month": anchor.Format("2006-01"),
		"days":  calendar.MonthView(reviews, anchor, now),
	})
}

// CalendarDay returns the reviews scheduled on one calendar date.
func (h *ReviewHandler) CalendarDay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	date := r.URL.Query().Get("date")
	day, err := time.Parse(calendar.DateKey, date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "date must be formatted YYYY-MM-DD", r))
		return
	}

	reviews, err := h.reviewRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch review schedule", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date,
		"reviews": calendar.OnDate(reviews, day),
	})
}

// Search matches pending reviews by card text.
func (h *ReviewHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "q is required", r))
		return
	}

	reviews, err := h.reviewRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to search reviews", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": calendar.Search(reviews, query),
	})
}

func (h *ReviewHandler) parseLimit(raw string) int {
	limit := h.defaultLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return limit
}

func parseDeckIDs(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
