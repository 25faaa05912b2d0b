// Package calendar groups a learner's review snapshot by date for the
// month-grid view and searches pending reviews by card text. Read-only,
// pure functions over an already-fetched snapshot.
package calendar

import (
	"strings"
	"time"

	"murajaa-backend/internal/models"
)

// DateKey is the calendar-date format used as the grouping key.
const DateKey = "2006-01-02"

// GroupByDueDate buckets reviews by the calendar date of next_review_date.
// Both past-due and future reviews are included: the grid shows the whole
// schedule, not just what is currently due.
func GroupByDueDate(reviews []models.DueReview) map[string][]models.DueReview {
	grouped := make(map[string][]models.DueReview)
	for _, r := range reviews {
		key := r.Review.NextReviewDate.Format(DateKey)
		grouped[key] = append(grouped[key], r)
	}
	return grouped
}

// GroupByCompletedDate buckets reviews by the calendar date they were last
// graded, for days strictly before today. Matches the grid's shading of
// past study activity.
func GroupByCompletedDate(reviews []models.DueReview, today time.Time) map[string][]models.DueReview {
	todayKey := today.Format(DateKey)
	grouped := make(map[string][]models.DueReview)
	for _, r := range reviews {
		if r.Review.ReviewsCount == 0 {
			// Never graded; last_review_date is just the creation time.
			continue
		}
		key := r.Review.LastReviewDate.Format(DateKey)
		if key >= todayKey {
			continue
		}
		grouped[key] = append(grouped[key], r)
	}
	return grouped
}

// OnDate returns the reviews scheduled for one calendar day, for the
// cell-selected detail panel.
func OnDate(reviews []models.DueReview, day time.Time) []models.DueReview {
	key := day.Format(DateKey)
	matched := []models.DueReview{}
	for _, r := range reviews {
		if r.Review.NextReviewDate.Format(DateKey) == key {
			matched = append(matched, r)
		}
	}
	return matched
}

// DayCounts is one grid cell: how many reviews are scheduled on the day
// and how many were completed on it.
type DayCounts struct {
	Date      string `json:"date"`
	Scheduled int    `json:"scheduled"`
	Completed int    `json:"completed"`
}

// MonthView returns per-day counts for every day of the month containing
// anchor, in calendar order. today bounds the completed counts so that a
// past month still shows its study activity.
func MonthView(reviews []models.DueReview, anchor, today time.Time) []DayCounts {
	scheduled := GroupByDueDate(reviews)
	completed := GroupByCompletedDate(reviews, today)

	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	days := make([]DayCounts, 0, 31)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateKey)
		days = append(days, DayCounts{
			Date:      key,
			Scheduled: len(scheduled[key]),
			Completed: len(completed[key]),
		})
	}
	return days
}

// Search matches the query case-insensitively against the card's english,
// arabic and transliteration fields. Results keep their next_review_date
// so the client can jump to the matching month.
func Search(reviews []models.DueReview, query string) []models.DueReview {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.DueReview{}
	}

	matched := []models.DueReview{}
	for _, r := range reviews {
		if strings.Contains(strings.ToLower(r.Card.English), query) ||
			strings.Contains(strings.ToLower(r.Card.Arabic), query) ||
			(r.Card.Transliteration != nil && strings.Contains(strings.ToLower(*r.Card.Transliteration), query)) {
			matched = append(matched, r)
		}
	}
	return matched
}
