package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murajaa-backend/internal/models"
	"murajaa-backend/internal/srs"
)

// ErrVersionConflict means another session committed a grade for the same
// record between our read and our write.
var ErrVersionConflict = errors.New("review was modified by another session")

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

const reviewColumns = `r.id, r.user_id, r.card_id, r.last_review_date, r.next_review_date,
	r.interval, r.ease_factor, r.repetition_count, r.reviews_count,
	r.quality_history, r.streak, r.version, r.created_at`

const cardColumns = `c.id, c.deck_id, c.english, c.arabic, c.transliteration, c.audio_url, c.created_at`

// CreateForCard inserts the scheduling state for a freshly created card.
// Interval 0 and next_review_date = now make the card immediately due.
func (r *ReviewRepo) CreateForCard(ctx context.Context, userID, cardID uuid.UUID, now time.Time) (*models.ReviewRecord, error) {
	fresh := srs.NewRecordState()

	rec := &models.ReviewRecord{
		ID:              uuid.New(),
		UserID:          userID,
		CardID:          cardID,
		LastReviewDate:  now,
		NextReviewDate:  now,
		Interval:        fresh.Interval,
		EaseFactor:      fresh.EaseFactor,
		RepetitionCount: fresh.RepetitionCount,
		QualityHistory:  []int{},
		Version:         1,
	}

	query := `
		INSERT INTO reviews (id, user_id, card_id, last_review_date, next_review_date,
			interval, ease_factor, repetition_count, reviews_count, quality_history, streak, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, '{}', 0, 1)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.CardID, rec.LastReviewDate, rec.NextReviewDate,
		rec.Interval, rec.EaseFactor, rec.RepetitionCount,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SelectDue returns the reviews due at the frozen threshold, most overdue
// first, bounded by limit. An empty deck set short-circuits without touching
// the database.
func (r *ReviewRepo) SelectDue(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, limit int, now time.Time) ([]models.DueReview, error) {
	if len(deckIDs) == 0 {
		return []models.DueReview{}, nil
	}

	query := `
		SELECT ` + reviewColumns + `, ` + cardColumns + `
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = $1
		  AND c.deck_id = ANY($2)
		  AND r.next_review_date <= $3
		ORDER BY r.next_review_date ASC
		LIMIT $4`

	return r.queryDueReviews(ctx, query, userID, deckIDs, now, limit)
}

// ForceLoad is the review-ahead fallback: the same selection without the
// due-date constraint. Kept separate from SelectDue because it deliberately
// breaks the due-by-schedule semantics the session otherwise assumes.
func (r *ReviewRepo) ForceLoad(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, limit int) ([]models.DueReview, error) {
	if len(deckIDs) == 0 {
		return []models.DueReview{}, nil
	}

	query := `
		SELECT ` + reviewColumns + `, ` + cardColumns + `
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = $1
		  AND c.deck_id = ANY($2)
		ORDER BY r.next_review_date ASC
		LIMIT $3`

	return r.queryDueReviews(ctx, query, userID, deckIDs, limit)
}

func (r *ReviewRepo) queryDueReviews(ctx context.Context, query string, args ...interface{}) ([]models.DueReview, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.DueReview
	for rows.Next() {
		var d models.DueReview
		err := rows.Scan(
			&d.Review.ID, &d.Review.UserID, &d.Review.CardID, &d.Review.LastReviewDate, &d.Review.NextReviewDate,
			&d.Review.Interval, &d.Review.EaseFactor, &d.Review.RepetitionCount, &d.Review.ReviewsCount,
			&d.Review.QualityHistory, &d.Review.Streak, &d.Review.Version, &d.Review.CreatedAt,
			&d.Card.ID, &d.Card.DeckID, &d.Card.English, &d.Card.Arabic, &d.Card.Transliteration, &d.Card.AudioURL, &d.Card.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, d)
	}
	return reviews, rows.Err()
}

// ListByUser returns the learner's full review snapshot joined with card
// content, for the calendar and search views.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DueReview, error) {
	query := `
		SELECT ` + reviewColumns + `, ` + cardColumns + `
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = $1
		ORDER BY r.next_review_date ASC`

	return r.queryDueReviews(ctx, query, userID)
}

// UpdateAfterGrade persists one grading event. The WHERE clause on version
// turns a concurrent update into ErrVersionConflict instead of a lost write;
// the quality history is appended, never rewritten.
func (r *ReviewRepo) UpdateAfterGrade(ctx context.Context, rec *models.ReviewRecord, quality int) error {
	query := `
		UPDATE reviews
		SET last_review_date = $1,
			next_review_date = $2,
			interval = $3,
			ease_factor = $4,
			repetition_count = $5,
			reviews_count = reviews_count + 1,
			quality_history = array_append(quality_history, $6),
			streak = $7,
			version = version + 1
		WHERE id = $8 AND user_id = $9 AND version = $10
		RETURNING reviews_count, version`

	err := r.pool.QueryRow(ctx, query,
		rec.LastReviewDate, rec.NextReviewDate, rec.Interval, rec.EaseFactor,
		rec.RepetitionCount, quality, rec.Streak,
		rec.ID, rec.UserID, rec.Version,
	).Scan(&rec.ReviewsCount, &rec.Version)

	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or someone else bumped the version.
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)", rec.ID).Scan(&exists); checkErr == nil && !exists {
			return ErrReviewNotFound
		}
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	rec.QualityHistory = append(rec.QualityHistory, quality)
	return nil
}

// CountDueByDeck returns how many reviews are due per deck at the given
// instant, for deck-list badges.
func (r *ReviewRepo) CountDueByDeck(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	query := `
		SELECT c.deck_id, COUNT(*)
		FROM reviews r
		JOIN cards c ON c.id = r.card_id
		WHERE r.user_id = $1 AND r.next_review_date <= $2
		GROUP BY c.deck_id`

	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var deckID uuid.UUID
		var n int
		if err := rows.Scan(&deckID, &n); err != nil {
			return nil, err
		}
		counts[deckID] = n
	}
	return counts, rows.Err()
}
