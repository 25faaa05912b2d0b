package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/models"
	"murajaa-backend/internal/session"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type stubStore struct {
	due []models.DueReview
	all []models.DueReview
}

func (s *stubStore) SelectDue(_ context.Context, _ uuid.UUID, deckIDs []uuid.UUID, limit int, _ time.Time) ([]models.DueReview, error) {
	if len(deckIDs) == 0 {
		return []models.DueReview{}, nil
	}
	if limit > len(s.due) {
		limit = len(s.due)
	}
	return s.due[:limit], nil
}

func (s *stubStore) ForceLoad(_ context.Context, _ uuid.UUID, deckIDs []uuid.UUID, limit int) ([]models.DueReview, error) {
	if len(deckIDs) == 0 {
		return []models.DueReview{}, nil
	}
	if limit > len(s.all) {
		limit = len(s.all)
	}
	return s.all[:limit], nil
}

func (s *stubStore) UpdateAfterGrade(_ context.Context, _ *models.ReviewRecord, _ int) error {
	return nil
}

func dueFixture(userID uuid.UUID, n int, due time.Time) []models.DueReview {
	deckID := uuid.New()
	reviews := make([]models.DueReview, 0, n)
	for i := 0; i < n; i++ {
		cardID := uuid.New()
		reviews = append(reviews, models.DueReview{
			Review: models.ReviewRecord{
				ID:             uuid.New(),
				UserID:         userID,
				CardID:         cardID,
				LastReviewDate: due,
				NextReviewDate: due,
				EaseFactor:     2.5,
				QualityHistory: []int{},
				Version:        1,
			},
			Card: models.Card{ID: cardID, DeckID: deckID, English: "water", Arabic: "ماء"},
		})
	}
	return reviews
}

func sessionTestRouter(store *stubStore, clock session.Clock) http.Handler {
	manager := session.NewManager(store, clock, nil, time.Hour)
	h := NewSessionHandler(manager, 10, 100)

	r := chi.NewRouter()
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.Start)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/reveal", h.Reveal)
		r.Post("/{id}/grade", h.Grade)
		r.Post("/{id}/undo", h.Undo)
		r.Post("/{id}/advance", h.Advance)
		r.Post("/{id}/abort", h.Abort)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, userID uuid.UUID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	return snap
}

func TestSessionFlowOverHTTP(t *testing.T) {
	userID := uuid.New()
	clock := fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := &stubStore{due: dueFixture(userID, 2, clock.now.Add(-time.Hour))}
	router := sessionTestRouter(store, clock)

	rr := doJSON(t, router, userID, http.MethodPost, "/api/v1/sessions", map[string]interface{}{
		"deck_ids": []string{uuid.New().String()},
		"limit":    10,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Start: expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	snap := decodeSnapshot(t, rr)
	if snap.Total != 2 || snap.State != session.StatePresenting {
		t.Fatalf("Unexpected start snapshot: %+v", snap)
	}
	base := fmt.Sprintf("/api/v1/sessions/%s", snap.SessionID)

	// Grading before reveal is rejected.
	rr = doJSON(t, router, userID, http.MethodPost, base+"/grade", map[string]int{"quality": 3})
	if rr.Code != http.StatusConflict {
		t.Errorf("Grade before reveal: expected 409, got %d", rr.Code)
	}

	rr = doJSON(t, router, userID, http.MethodPost, base+"/reveal", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Reveal: expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, router, userID, http.MethodPost, base+"/grade", map[string]int{"quality": 1})
	if rr.Code != http.StatusOK {
		t.Fatalf("Grade: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	// Undo buffers nothing to the store and re-enables grading.
	rr = doJSON(t, router, userID, http.MethodPost, base+"/undo", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Undo: expected 200, got %d", rr.Code)
	}
	rr = doJSON(t, router, userID, http.MethodPost, base+"/grade", map[string]int{"quality": 3})
	if rr.Code != http.StatusOK {
		t.Fatalf("Re-grade: expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, router, userID, http.MethodPost, base+"/advance", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Advance: expected 200, got %d", rr.Code)
	}
	snap = decodeSnapshot(t, rr)
	if snap.Position != 2 || snap.Complete {
		t.Errorf("Expected position 2 not complete, got %+v", snap)
	}

	// Finish the second card.
	doJSON(t, router, userID, http.MethodPost, base+"/reveal", nil)
	doJSON(t, router, userID, http.MethodPost, base+"/grade", map[string]int{"quality": 2})
	rr = doJSON(t, router, userID, http.MethodPost, base+"/advance", nil)
	snap = decodeSnapshot(t, rr)
	if !snap.Complete {
		t.Errorf("Expected complete session, got %+v", snap)
	}
}

func TestStartSession_Validation(t *testing.T) {
	userID := uuid.New()
	router := sessionTestRouter(&stubStore{}, fixedClock{now: time.Now()})

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", map[string]interface{}{}},
		{"empty deck list", map[string]interface{}{"deck_ids": []string{}}},
		{"malformed json", "{"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rr *httptest.ResponseRecorder
			if s, ok := tc.body.(string); ok {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader([]byte(s)))
				req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
				rr = httptest.NewRecorder()
				router.ServeHTTP(rr, req)
			} else {
				rr = doJSON(t, router, userID, http.MethodPost, "/api/v1/sessions", tc.body)
			}
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestGrade_InvalidQualityRejected(t *testing.T) {
	userID := uuid.New()
	clock := fixedClock{now: time.Now()}
	store := &stubStore{due: dueFixture(userID, 1, clock.now)}
	router := sessionTestRouter(store, clock)

	rr := doJSON(t, router, userID, http.MethodPost, "/api/v1/sessions", map[string]interface{}{
		"deck_ids": []string{uuid.New().String()},
	})
	snap := decodeSnapshot(t, rr)
	base := fmt.Sprintf("/api/v1/sessions/%s", snap.SessionID)
	doJSON(t, router, userID, http.MethodPost, base+"/reveal", nil)

	for _, quality := range []int{-1, 4} {
		rr := doJSON(t, router, userID, http.MethodPost, base+"/grade", map[string]int{"quality": quality})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("quality %d: expected 400, got %d", quality, rr.Code)
		}
	}
}

func TestSession_NotFoundAndBadID(t *testing.T) {
	userID := uuid.New()
	router := sessionTestRouter(&stubStore{}, fixedClock{now: time.Now()})

	rr := doJSON(t, router, userID, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Bad ID: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, router, userID, http.MethodGet, "/api/v1/sessions/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Unknown session: expected 404, got %d", rr.Code)
	}
}

func TestStartSession_ForceMode(t *testing.T) {
	userID := uuid.New()
	clock := fixedClock{now: time.Now()}
	store := &stubStore{all: dueFixture(userID, 3, clock.now.AddDate(0, 0, 14))}
	router := sessionTestRouter(store, clock)

	rr := doJSON(t, router, userID, http.MethodPost, "/api/v1/sessions", map[string]interface{}{
		"deck_ids": []string{uuid.New().String()},
		"force":    true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rr.Code)
	}
	snap := decodeSnapshot(t, rr)
	if !snap.Forced || snap.Total != 3 {
		t.Errorf("Expected forced session over 3 cards, got %+v", snap)
	}
}
