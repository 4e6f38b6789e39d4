package chat

import (
	"context"
	"testing"
	"time"

	"equiprent/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	sent []uuid.UUID
}

func (p *recordingPusher) SendToUser(userID uuid.UUID, frame realtime.Frame) bool {
	p.sent = append(p.sent, userID)
	return true
}

func TestPushTyping_Debounce(t *testing.T) {
	pusher := &recordingPusher{}
	tracker := NewPushTyping(pusher, 3*time.Second)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	conv := &Conversation{ID: uuid.New(), RenterID: uuid.New(), OwnerID: uuid.New()}
	ctx := context.Background()

	require.NoError(t, tracker.Signal(ctx, conv, conv.RenterID))
	clock = clock.Add(time.Second)
	require.NoError(t, tracker.Signal(ctx, conv, conv.RenterID))
	assert.Equal(t, []uuid.UUID{conv.OwnerID}, pusher.sent)

	typing, err := tracker.IsTyping(ctx, conv.ID, conv.RenterID)
	require.NoError(t, err)
	assert.True(t, typing)

	clock = clock.Add(3 * time.Second)
	require.NoError(t, tracker.Signal(ctx, conv, conv.RenterID))
	require.NoError(t, tracker.Signal(ctx, conv, conv.OwnerID))
	assert.Equal(t, []uuid.UUID{conv.OwnerID, conv.OwnerID, conv.RenterID}, pusher.sent)

	clock = clock.Add(10 * time.Second)
	typing, err = tracker.IsTyping(ctx, conv.ID, conv.RenterID)
	require.NoError(t, err)
	assert.False(t, typing)
}
