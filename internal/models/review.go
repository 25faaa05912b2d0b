package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewRecord is the scheduling state for one (learner, card) pair.
// Created once at card creation, updated on every grading event, never
// deleted by the engine (deletion cascades from the card).
type ReviewRecord struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	CardID          uuid.UUID `json:"card_id"`
	LastReviewDate  time.Time `json:"last_review_date"`
	NextReviewDate  time.Time `json:"next_review_date"`
	Interval        int       `json:"interval"`
	EaseFactor      float64   `json:"ease_factor"`
	RepetitionCount int       `json:"repetition_count"`
	ReviewsCount    int       `json:"reviews_count"`
	QualityHistory  []int     `json:"quality_history"`
	Streak          int       `json:"streak"`
	// Version is bumped on every persisted grading event so concurrent
	// sessions fail with a conflict instead of silently overwriting each
	// other's quality_history.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDue reports whether the record is due at the given instant.
func (r *ReviewRecord) IsDue(now time.Time) bool {
	return !r.NextReviewDate.After(now)
}

// DueReview is one entry of a due-set fetch: the scheduling record joined
// with the card content needed to present it.
type DueReview struct {
	Review ReviewRecord `json:"review"`
	Card   Card         `json:"card"`
}
