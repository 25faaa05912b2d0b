package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murajaa-backend/internal/models"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// GetHotkeys returns the learner's saved hotkey bindings, falling back to
// the defaults when none are stored yet.
func (r *SettingsRepo) GetHotkeys(ctx context.Context, userID uuid.UUID) (models.HotkeySettings, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		"SELECT hotkeys_json FROM user_settings WHERE user_id = $1", userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultHotkeys(), nil
	}
	if err != nil {
		return models.HotkeySettings{}, err
	}

	hotkeys := models.DefaultHotkeys()
	if err := json.Unmarshal(raw, &hotkeys); err != nil {
		return models.DefaultHotkeys(), nil
	}
	return hotkeys, nil
}

func (r *SettingsRepo) UpdateHotkeys(ctx context.Context, userID uuid.UUID, hotkeys models.HotkeySettings) error {
	raw, err := json.Marshal(hotkeys)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, hotkeys_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET hotkeys_json = EXCLUDED.hotkeys_json, updated_at = NOW()
	`, userID, raw)
	return err
}
