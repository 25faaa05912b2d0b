package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventStarted   EventType = "session.started"
	EventGraded    EventType = "session.graded"
	EventAdvanced  EventType = "session.advanced"
	EventCompleted EventType = "session.completed"
	EventAborted   EventType = "session.aborted"
)

// Event is one session progress update, relayed to the learner's other
// surfaces over the websocket hub.
type Event struct {
	Type      EventType `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	CardID    uuid.UUID `json:"card_id,omitempty"`
	Position  int       `json:"position,omitempty"`
	Total     int       `json:"total"`
	Quality   *int      `json:"quality,omitempty"`
	Forced    bool      `json:"forced,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier receives session progress events and commit notifications.
// Best-effort: failures are logged, never surfaced to the learner.
type Notifier interface {
	SessionEvent(ctx context.Context, userID uuid.UUID, event Event)
	GradeCommitted(ctx context.Context, userID uuid.UUID)
}

// EventChannel is the pub/sub channel the websocket hub subscribes to for
// one learner.
func EventChannel(userID uuid.UUID) string {
	return fmt.Sprintf("session:events:%s", userID)
}

// DueCountsKey is the cache key for a learner's per-deck due counts.
func DueCountsKey(userID uuid.UUID) string {
	return fmt.Sprintf("duecounts:%s", userID)
}

// RedisNotifier publishes events to Redis pub/sub and invalidates the
// due-count cache when a grade is committed.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: redisClient}
}

func (n *RedisNotifier) SessionEvent(ctx context.Context, userID uuid.UUID, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal session event: %v", err)
		return
	}
	if err := n.redis.Publish(ctx, EventChannel(userID), payload).Err(); err != nil {
		log.Printf("Failed to publish session event: %v", err)
	}
}

func (n *RedisNotifier) GradeCommitted(ctx context.Context, userID uuid.UUID) {
	if err := n.redis.Del(ctx, DueCountsKey(userID)).Err(); err != nil {
		log.Printf("Failed to invalidate due-count cache: %v", err)
	}
}
