package session

import "time"

// Clock supplies "now". Injected so the due-threshold freeze and interval
// anchoring are testable with fixed clocks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation used in production.
func SystemClock() Clock { return systemClock{} }
