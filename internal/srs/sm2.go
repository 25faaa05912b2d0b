// Package srs implements the SM-2 scheduling arithmetic on the compressed
// 0-3 quality scale used by the study UI: 0 blackout, 1 wrong but familiar,
// 2 correct with hesitation, 3 perfect. 0-1 count as failure, 2-3 as success.
package srs

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinEaseFactor is the classical SM-2 ease floor.
	MinEaseFactor = 1.3
	// InitialEaseFactor is assigned to fresh records.
	InitialEaseFactor = 2.5
	// MinInterval is the interval, in days, a failed card falls back to.
	MinInterval = 1

	// MaxQuality is the top of the grading scale.
	MaxQuality = 3
)

var ErrInvalidQuality = errors.New("srs: quality must be between 0 and 3")

// State is the scheduling state SM-2 reads and produces. Pure value, no
// dates: the caller anchors the interval to its own clock.
type State struct {
	RepetitionCount int
	EaseFactor      float64
	Interval        int
}

// NewRecordState is the state a review record is created with. Interval 0
// makes the record immediately due.
func NewRecordState() State {
	return State{RepetitionCount: 0, EaseFactor: InitialEaseFactor, Interval: 0}
}

// Schedule computes the next scheduling state from the current one and a
// quality grade. Deterministic, no side effects. A quality outside [0,3] is
// a caller bug and returns ErrInvalidQuality without computing anything.
func Schedule(current State, quality int) (State, error) {
	if quality < 0 || quality > MaxQuality {
		return State{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	next := current

	if quality <= 1 {
		// Failure: start the repetition ladder over.
		next.RepetitionCount = 0
		next.Interval = MinInterval
	} else {
		next.RepetitionCount = current.RepetitionCount + 1
		switch next.RepetitionCount {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(current.Interval) * current.EaseFactor))
		}
	}

	// EF' = EF + (0.1 - (3 - q) * (0.08 + (3 - q) * 0.02)), floored at 1.3.
	// The (3 - q) term is the 0-3 scale's distance from perfect.
	q := float64(quality)
	next.EaseFactor = current.EaseFactor + (0.1 - (3-q)*(0.08+(3-q)*0.02))
	if next.EaseFactor < MinEaseFactor {
		next.EaseFactor = MinEaseFactor
	}

	return next, nil
}

// IsFailure reports whether a quality grade counts as a failed recall.
func IsFailure(quality int) bool {
	return quality <= 1
}
