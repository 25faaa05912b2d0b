package models

import (
	"time"

	"github.com/google/uuid"
)

type Deck struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CardCount int       `json:"card_count"`
	DueCount  int       `json:"due_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Card carries the display fields the session and calendar need. Card
// content is owned by the deck/card CRUD surface; the engine only reads it.
type Card struct {
	ID              uuid.UUID `json:"id"`
	DeckID          uuid.UUID `json:"deck_id"`
	English         string    `json:"english"`
	Arabic          string    `json:"arabic"`
	Transliteration *string   `json:"transliteration,omitempty"`
	AudioURL        *string   `json:"audio_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateDeckRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type CreateCardRequest struct {
	English         string  `json:"english" validate:"required,min=1,max=500"`
	Arabic          string  `json:"arabic" validate:"required,min=1,max=500"`
	Transliteration *string `json:"transliteration" validate:"omitempty,max=500"`
	AudioURL        *string `json:"audio_url" validate:"omitempty,url"`
}
