package handlers

import (
	"encoding/json"
	"net/http"

	"murajaa-backend/internal/middleware"
	"murajaa-backend/internal/models"
	"murajaa-backend/internal/repository"
)

type SettingsHandler struct {
	settingsRepo *repository.SettingsRepo
}

func NewSettingsHandler(settingsRepo *repository.SettingsRepo) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

func (h *SettingsHandler) GetHotkeys(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	hotkeys, err := h.settingsRepo.GetHotkeys(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch hotkey settings", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"hotkeys": hotkeys})
}

func (h *SettingsHandler) UpdateHotkeys(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.HotkeySettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if err := h.settingsRepo.UpdateHotkeys(r.Context(), userID, req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save hotkey settings", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"hotkeys": req})
}
