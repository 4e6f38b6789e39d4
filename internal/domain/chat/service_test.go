package chat

import (
	"context"
	"testing"
	"time"

	"equiprent/internal/cache"
	"equiprent/internal/database/dbtest"
	"equiprent/internal/domain/auth"
	"equiprent/internal/domain/equipment"
	"equiprent/internal/events"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	svc      *Service
	owner    *auth.User
	renter   *auth.User
	outsider *auth.User
	eq       *equipment.Equipment
	messages []events.MessagePayload
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	ctx := context.Background()

	db := dbtest.Open(t, &auth.User{}, equipment.Model(), &Conversation{}, &Message{})
	users := auth.NewRepository(db)
	f := &chatFixture{}

	mk := func(email, name string) *auth.User {
		u := &auth.User{Email: email, PasswordHash: "x", Name: name, Role: auth.RoleUser}
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	f.owner = mk("owner@example.com", "Olga Owner")
	f.renter = mk("renter@example.com", "Ravi Renter")
	f.outsider = mk("other@example.com", "Oscar Other")

	eqRepo := equipment.NewRepository(db)
	f.eq = &equipment.Equipment{OwnerID: f.owner.ID, Title: "Tripod", DailyRate: 500, Currency: "usd", IsActive: true}
	require.NoError(t, eqRepo.Create(ctx, f.eq))

	bus := events.NewBus(zerolog.Nop())
	bus.Subscribe(events.MessageCreated, func(e *events.Event) error {
		var p events.MessagePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		f.messages = append(f.messages, p)
		return nil
	})

	typing := NewCacheTyping(cache.NewMemory(64), time.Minute)
	f.svc = NewService(NewRepository(db), eqRepo, typing, bus, zerolog.Nop())
	return f
}

func TestStartConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	conv, err := f.svc.StartConversation(ctx, f.renter.ID, f.eq.ID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, conv.OwnerID)
	assert.Equal(t, f.renter.ID, conv.RenterID)

	again, err := f.svc.StartConversation(ctx, f.renter.ID, f.eq.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	_, err = f.svc.StartConversation(ctx, f.owner.ID, f.eq.ID)
	assert.ErrorIs(t, err, ErrCannotChatSelf)

	_, err = f.svc.StartConversation(ctx, f.renter.ID, uuid.New())
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
}

func TestSendMessage_ReadAndUnread(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.StartConversation(ctx, f.renter.ID, f.eq.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.renter.ID, conv.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = f.svc.SendMessage(ctx, f.outsider.ID, conv.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)

	msg, err := f.svc.SendMessage(ctx, f.renter.ID, conv.ID, " Is it free on Friday? ")
	require.NoError(t, err)
	assert.Equal(t, "Is it free on Friday?", msg.Body)
	_, err = f.svc.SendMessage(ctx, f.renter.ID, conv.ID, "Need it for two days")
	require.NoError(t, err)

	require.Len(t, f.messages, 2)
	assert.Equal(t, f.owner.ID, f.messages[0].RecipientID)

	list, err := f.svc.ListConversations(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].UnreadCount)
	assert.Equal(t, "Tripod", list[0].EquipmentTitle)

	n, err := f.svc.MarkRead(ctx, f.renter.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "own messages are not marked")

	n, err = f.svc.MarkRead(ctx, f.owner.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	msgs, err := f.svc.ListMessages(ctx, f.owner.ID, conv.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Need it for two days", msgs[0].Body)
	assert.NotNil(t, msgs[0].ReadAt)

	_, err = f.svc.ListMessages(ctx, f.outsider.ID, conv.ID, nil, 10)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestTyping_Polling(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.StartConversation(ctx, f.renter.ID, f.eq.ID)
	require.NoError(t, err)

	typing, err := f.svc.OtherTyping(ctx, f.owner.ID, conv.ID)
	require.NoError(t, err)
	assert.False(t, typing)

	require.NoError(t, f.svc.Typing(ctx, f.renter.ID, conv.ID))

	typing, err = f.svc.OtherTyping(ctx, f.owner.ID, conv.ID)
	require.NoError(t, err)
	assert.True(t, typing)

	typing, err = f.svc.OtherTyping(ctx, f.renter.ID, conv.ID)
	require.NoError(t, err)
	assert.False(t, typing, "own signal is not reported back")

	assert.ErrorIs(t, f.svc.Typing(ctx, f.outsider.ID, conv.ID), ErrNotParticipant)
}
