package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"murajaa-backend/internal/models"
	"murajaa-backend/internal/srs"
)

// ReviewStore is the slice of the persistence layer the state machine
// needs. The Postgres repository satisfies it; tests use an in-memory fake.
type ReviewStore interface {
	SelectDue(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, limit int, now time.Time) ([]models.DueReview, error)
	ForceLoad(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, limit int) ([]models.DueReview, error)
	UpdateAfterGrade(ctx context.Context, rec *models.ReviewRecord, quality int) error
}

const (
	defaultSessionTTL = 2 * time.Hour
	evictionInterval  = 10 * time.Minute
)

// Manager owns the in-memory sessions for this process. Each API call
// locks the manager briefly to find the session, then the session itself,
// so grading events within one session are strictly sequential.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	locks    map[uuid.UUID]*sync.Mutex

	store    ReviewStore
	clock    Clock
	notifier Notifier
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewManager(store ReviewStore, clock Clock, notifier Notifier, ttl time.Duration) *Manager {
	if clock == nil {
		clock = SystemClock()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		locks:    make(map[uuid.UUID]*sync.Mutex),
		store:    store,
		clock:    clock,
		notifier: notifier,
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
}

// Start builds a new session. The due threshold is computed exactly once
// here and reused for the fetch, so the queue is a stable snapshot: cards
// becoming due while the learner works through it do not appear. With
// force, the due constraint is skipped entirely (review ahead of schedule).
// An empty queue yields an immediately complete session.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, limit int, force bool) (Snapshot, error) {
	now := m.clock.Now()

	var (
		due []models.DueReview
		err error
	)
	if force {
		due, err = m.store.ForceLoad(ctx, userID, deckIDs, limit)
	} else {
		due, err = m.store.SelectDue(ctx, userID, deckIDs, limit, now)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load due reviews: %w", err)
	}

	s := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		DueThreshold: now,
		DeckIDs:      deckIDs,
		Forced:       force,
		StartedAt:    now,
		LastActiveAt: now,
	}
	for _, d := range due {
		s.Entries = append(s.Entries, &Entry{
			Review: d.Review,
			Card:   d.Card,
			State:  StatePresenting,
		})
	}
	if len(s.Entries) == 0 {
		s.Complete = true
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.locks[s.ID] = &sync.Mutex{}
	m.mu.Unlock()

	m.notify(ctx, userID, Event{
		Type:      EventStarted,
		SessionID: s.ID,
		Total:     len(s.Entries),
		Forced:    force,
		At:        now,
	})

	return snapshot(s), nil
}

// Get returns the current snapshot without changing state.
func (m *Manager) Get(userID, sessionID uuid.UUID) (Snapshot, error) {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()
	return snapshot(s), nil
}

// Reveal flips the current card. Idempotent: revealing a revealed card is
// a no-op, but a graded card can no longer be re-revealed out of turn.
func (m *Manager) Reveal(userID, sessionID uuid.UUID) (Snapshot, error) {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	entry := s.current()
	if entry == nil {
		return Snapshot{}, ErrSessionComplete
	}
	if entry.State == StatePresenting {
		entry.State = StateRevealed
	}
	s.LastActiveAt = m.clock.Now()
	return snapshot(s), nil
}

// Grade runs SM-2 for the current card and buffers the resulting record
// update on the entry. Nothing is persisted until Advance, which makes
// Undo a pure in-memory rollback. Guards: the card must be revealed and
// must not already carry a grade.
func (m *Manager) Grade(ctx context.Context, userID, sessionID uuid.UUID, quality int) (Snapshot, error) {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	entry := s.current()
	if entry == nil {
		return Snapshot{}, ErrSessionComplete
	}
	switch entry.State {
	case StatePresenting:
		return Snapshot{}, ErrNotRevealed
	case StateGraded:
		return Snapshot{}, ErrAlreadyGraded
	}

	next, err := srs.Schedule(srs.State{
		RepetitionCount: entry.Review.RepetitionCount,
		EaseFactor:      entry.Review.EaseFactor,
		Interval:        entry.Review.Interval,
	}, quality)
	if err != nil {
		return Snapshot{}, err
	}

	now := m.clock.Now()
	pending := entry.Review
	pending.Interval = next.Interval
	pending.EaseFactor = next.EaseFactor
	pending.RepetitionCount = next.RepetitionCount
	pending.LastReviewDate = now
	pending.NextReviewDate = now.AddDate(0, 0, next.Interval)
	if srs.IsFailure(quality) {
		pending.Streak = 0
	} else {
		pending.Streak = entry.Review.Streak + 1
	}

	entry.State = StateGraded
	entry.Quality = quality
	entry.pending = &pending
	s.LastActiveAt = now

	m.notify(ctx, userID, Event{
		Type:      EventGraded,
		SessionID: s.ID,
		CardID:    entry.Card.ID,
		Position:  s.Cursor + 1,
		Total:     len(s.Entries),
		Quality:   &quality,
		At:        now,
	})

	return snapshot(s), nil
}

// Undo discards the buffered grade for the current card and re-enables
// grading. Rejected once the grade has been committed by Advance.
func (m *Manager) Undo(userID, sessionID uuid.UUID) (Snapshot, error) {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	entry := s.current()
	if entry == nil {
		return Snapshot{}, ErrSessionComplete
	}
	if entry.State != StateGraded {
		return Snapshot{}, ErrNotGraded
	}

	entry.State = StateRevealed
	entry.Quality = 0
	entry.pending = nil
	s.LastActiveAt = m.clock.Now()
	return snapshot(s), nil
}

// Advance commits the buffered grade through the store and moves to the
// next card, or completes the session after the last one. A store failure
// leaves the entry graded and the cursor unmoved so the learner can retry
// (or Undo) without losing the queue.
func (m *Manager) Advance(ctx context.Context, userID, sessionID uuid.UUID) (Snapshot, error) {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	entry := s.current()
	if entry == nil {
		return Snapshot{}, ErrSessionComplete
	}
	if entry.State != StateGraded || entry.pending == nil {
		return Snapshot{}, ErrNotGraded
	}

	if err := m.store.UpdateAfterGrade(ctx, entry.pending, entry.Quality); err != nil {
		return Snapshot{}, fmt.Errorf("failed to save review progress: %w", err)
	}

	entry.Review = *entry.pending
	entry.pending = nil
	now := m.clock.Now()
	s.LastActiveAt = now

	if m.notifier != nil {
		m.notifier.GradeCommitted(ctx, userID)
	}

	if s.Cursor < len(s.Entries)-1 {
		s.Cursor++
		m.notify(ctx, userID, Event{
			Type:      EventAdvanced,
			SessionID: s.ID,
			Position:  s.Cursor + 1,
			Total:     len(s.Entries),
			At:        now,
		})
	} else {
		s.Complete = true
		m.notify(ctx, userID, Event{
			Type:      EventCompleted,
			SessionID: s.ID,
			Total:     len(s.Entries),
			At:        now,
		})
	}

	return snapshot(s), nil
}

// Abort drops the session. Grades already committed by Advance stand;
// a buffered, uncommitted grade on the current card is discarded.
func (m *Manager) Abort(ctx context.Context, userID, sessionID uuid.UUID) error {
	s, unlock, err := m.acquire(userID, sessionID)
	if err != nil {
		return err
	}
	unlock()

	m.mu.Lock()
	delete(m.sessions, sessionID)
	delete(m.locks, sessionID)
	m.mu.Unlock()

	m.notify(ctx, userID, Event{
		Type:      EventAborted,
		SessionID: s.ID,
		At:        m.clock.Now(),
	})
	return nil
}

// acquire looks the session up, checks ownership, and locks it. The
// returned unlock must be called once the operation is done.
func (m *Manager) acquire(userID, sessionID uuid.UUID) (*Session, func(), error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	lock := m.locks[sessionID]
	m.mu.RUnlock()

	if !ok || s.UserID != userID {
		return nil, nil, ErrSessionNotFound
	}
	lock.Lock()
	return s, lock.Unlock, nil
}

// Start the idle-session eviction loop.
func (m *Manager) StartEviction() {
	go func() {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopChan:
				return
			case <-ticker.C:
				m.evictIdle()
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Manager) evictIdle() {
	cutoff := m.clock.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.LastActiveAt.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.locks, id)
			log.Printf("Evicted idle session %s", id)
		}
	}
}

func (m *Manager) notify(ctx context.Context, userID uuid.UUID, event Event) {
	if m.notifier == nil {
		return
	}
	m.notifier.SessionEvent(ctx, userID, event)
}
