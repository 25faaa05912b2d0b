// Package session drives one learner through a queue of due reviews:
// reveal, grade, undo-before-advance, advance, completion. Grades are
// buffered on the entry and only written through on Advance, so Undo is a
// true rollback with no store interaction.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"murajaa-backend/internal/models"
)

// EntryState tracks how far the learner has taken the current card.
type EntryState string

const (
	StatePresenting EntryState = "presenting"
	StateRevealed   EntryState = "revealed"
	StateGraded     EntryState = "graded"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionComplete = errors.New("session is already complete")
	ErrNotRevealed     = errors.New("card has not been revealed yet")
	ErrAlreadyGraded   = errors.New("card has already been graded")
	ErrNotGraded       = errors.New("card has not been graded yet")
)

// Entry is one queue position: the scheduling record, its card snapshot,
// and the transient grading state.
type Entry struct {
	Review models.ReviewRecord
	Card   models.Card
	State  EntryState
	// Quality and pending are only meaningful in StateGraded. pending holds
	// the computed SM-2 update that Advance will commit; Undo discards it.
	Quality int
	pending *models.ReviewRecord
}

// Session is the ephemeral state of one bounded pass through a due-set
// queue. Owned by exactly one learner; never shared across sessions.
type Session struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// DueThreshold is the frozen "now" the queue was selected against.
	DueThreshold time.Time
	DeckIDs      []uuid.UUID
	Forced       bool
	Entries      []*Entry
	Cursor       int
	Complete     bool
	StartedAt    time.Time
	LastActiveAt time.Time
}

func (s *Session) current() *Entry {
	if s.Complete || s.Cursor >= len(s.Entries) {
		return nil
	}
	return s.Entries[s.Cursor]
}

// CardView is the card as the client may see it. Back-side fields are
// withheld until the card has been revealed.
type CardView struct {
	ID              uuid.UUID `json:"id"`
	DeckID          uuid.UUID `json:"deck_id"`
	English         string    `json:"english"`
	Arabic          string    `json:"arabic,omitempty"`
	Transliteration *string   `json:"transliteration,omitempty"`
	AudioURL        *string   `json:"audio_url,omitempty"`
}

// Snapshot is the client-facing view of a session at one instant.
type Snapshot struct {
	SessionID    uuid.UUID  `json:"session_id"`
	Forced       bool       `json:"forced"`
	Complete     bool       `json:"complete"`
	Position     int        `json:"position"`
	Total        int        `json:"total"`
	State        EntryState `json:"state,omitempty"`
	Card         *CardView  `json:"card,omitempty"`
	Quality      *int       `json:"quality,omitempty"`
	DueThreshold time.Time  `json:"due_threshold"`
}

func snapshot(s *Session) Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		Forced:       s.Forced,
		Complete:     s.Complete,
		Position:     s.Cursor + 1,
		Total:        len(s.Entries),
		DueThreshold: s.DueThreshold,
	}
	if s.Complete {
		snap.Position = len(s.Entries)
		return snap
	}

	entry := s.current()
	snap.State = entry.State

	view := &CardView{
		ID:      entry.Card.ID,
		DeckID:  entry.Card.DeckID,
		English: entry.Card.English,
	}
	if entry.State != StatePresenting {
		view.Arabic = entry.Card.Arabic
		view.Transliteration = entry.Card.Transliteration
		view.AudioURL = entry.Card.AudioURL
	}
	snap.Card = view

	if entry.State == StateGraded {
		quality := entry.Quality
		snap.Quality = &quality
	}
	return snap
}
