package chat

import (
	"context"
	"sync"
	"time"

	"equiprent/internal/cache"
	"equiprent/internal/realtime"

	"github.com/google/uuid"
)

const FrameTyping = "typing"

// TypingTracker records short-lived "user is typing" signals.
type TypingTracker interface {
	Signal(ctx context.Context, conv *Conversation, userID uuid.UUID) error
	// IsTyping reports whether userID signalled typing in the conversation recently.
	IsTyping(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

type Pusher interface {
	SendToUser(userID uuid.UUID, frame realtime.Frame) bool
}

type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

// PushTyping forwards typing signals to the other participant over the
// realtime hub. Repeated signals inside the debounce window are dropped.
type PushTyping struct {
	pusher   Pusher
	debounce time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewPushTyping(pusher Pusher, debounce time.Duration) *PushTyping {
	return &PushTyping{
		pusher:   pusher,
		debounce: debounce,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

func (t *PushTyping) Signal(_ context.Context, conv *Conversation, userID uuid.UUID) error {
	key := typingKey(conv.ID, userID)
	now := t.now()

	t.mu.Lock()
	last, seen := t.lastSent[key]
	if seen && now.Sub(last) < t.debounce {
		t.mu.Unlock()
		return nil
	}
	t.lastSent[key] = now
	t.prune(now)
	t.mu.Unlock()

	t.pusher.SendToUser(conv.Other(userID), realtime.Frame{
		Type:    FrameTyping,
		Payload: TypingEvent{ConversationID: conv.ID, UserID: userID},
	})
	return nil
}

func (t *PushTyping) IsTyping(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastSent[typingKey(conversationID, userID)]
	return ok && t.now().Sub(last) < t.debounce, nil
}

// prune drops stale entries. Caller holds mu.
func (t *PushTyping) prune(now time.Time) {
	if len(t.lastSent) < 1024 {
		return
	}
	for k, v := range t.lastSent {
		if now.Sub(v) >= t.debounce {
			delete(t.lastSent, k)
		}
	}
}

// CacheTyping stores typing signals in the cache with a TTL for clients that poll.
type CacheTyping struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheTyping(c cache.Cache, ttl time.Duration) *CacheTyping {
	return &CacheTyping{cache: c, ttl: ttl}
}

func (t *CacheTyping) Signal(ctx context.Context, conv *Conversation, userID uuid.UUID) error {
	return t.cache.Set(ctx, typingKey(conv.ID, userID), []byte("1"), t.ttl)
}

func (t *CacheTyping) IsTyping(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	_, ok, err := t.cache.Get(ctx, typingKey(conversationID, userID))
	return ok, err
}

func typingKey(conversationID, userID uuid.UUID) string {
	return "typing:" + conversationID.String() + ":" + userID.String()
}
