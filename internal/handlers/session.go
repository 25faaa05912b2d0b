package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/session"
)

type SessionHandler struct {
	manager      *session.Manager
	defaultLimit int
	maxLimit     int
}

func NewSessionHandler(manager *session.Manager, defaultLimit, maxLimit int) *SessionHandler {
	return &SessionHandler{
		manager:      manager,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

type startSessionRequest struct {
	DeckIDs []uuid.UUID `json:"deck_ids" validate:"required,min=1,dive,required"`
	Limit   int         `json:"limit" validate:"omitempty,min=1"`
	Force   bool        `json:"force"`
}

type gradeRequest struct {
	Quality int `json:"quality" validate:"min=0,max=3"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	userID := middleware.GetUserID(r.Context())
	snap, err := h.manager.Start(r.Context(), userID, req.DeckIDs, limit, req.Force)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.manager.Get(middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.manager.Reveal(middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) Grade(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Quality < 0 || req.Quality > 3 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Quality must be 0-3", r))
		return
	}

	snap, err := h.manager.Grade(r.Context(), middleware.GetUserID(r.Context()), sessionID, req.Quality)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.manager.Undo(middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.manager.Advance(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) Abort(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Abort(r.Context(), middleware.GetUserID(r.Context()), sessionID); err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session aborted"})
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, false
	}
	return id, true
}
