package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"equiprent/internal/database/dbtest"
	"equiprent/internal/events"
	"equiprent/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	frames map[uuid.UUID][]realtime.Frame
}

func (p *fakePusher) SendToUser(userID uuid.UUID, frame realtime.Frame) bool {
	if p.frames == nil {
		p.frames = map[uuid.UUID][]realtime.Frame{}
	}
	p.frames[userID] = append(p.frames[userID], frame)
	return true
}

func newTestService(t *testing.T, delivery Delivery) (*Service, *NotificationRepository) {
	t.Helper()
	db := dbtest.Open(t, Model())
	repo := NewNotificationRepository(db)
	return NewService(repo, delivery, zerolog.Nop()), repo
}

func TestCreate_PushesInRealtimeMode(t *testing.T) {
	pusher := &fakePusher{}
	svc, _ := newTestService(t, NewRealtimeDelivery(pusher))
	userID := uuid.New()

	n, err := svc.Create(context.Background(), userID, TypeNewMessage, "New message", "hello", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(n.Data))

	require.Len(t, pusher.frames[userID], 1)
	assert.Equal(t, FrameNotification, pusher.frames[userID][0].Type)
	pushed, ok := pusher.frames[userID][0].Payload.(Notification)
	require.True(t, ok)
	assert.Equal(t, n.ID, pushed.ID)
}

func TestListAfterAndReadFlags(t *testing.T) {
	svc, _ := newTestService(t, PollingDelivery{})
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	first, err := svc.Create(ctx, userID, TypeBookingConfirmed, "one", "", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	cursor := time.Now().UTC()
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Create(ctx, userID, TypeBookingRejected, "two", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, TypeBookingRejected, "not mine", "", nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, userID, nil, 0)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "two", all.Items[0].Title)
	assert.Equal(t, int64(2), all.UnreadCount)

	newer, err := svc.List(ctx, userID, &cursor, 0)
	require.NoError(t, err)
	require.Len(t, newer.Items, 1)
	assert.Equal(t, "two", newer.Items[0].Title)

	require.NoError(t, svc.MarkAsRead(ctx, userID, first.ID))
	require.NoError(t, svc.MarkAsRead(ctx, userID, first.ID))
	assert.ErrorIs(t, svc.MarkAsRead(ctx, other, first.ID), ErrNotificationNotFound)

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	marked, err := svc.MarkAllAsRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	purged, err := svc.PurgeRead(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	left, err := svc.List(ctx, other, nil, 0)
	require.NoError(t, err)
	assert.Len(t, left.Items, 1)
}

func TestSubscribe_RoutesEventsToParties(t *testing.T) {
	svc, _ := newTestService(t, PollingDelivery{})
	ctx := context.Background()
	bus := events.NewBus(zerolog.Nop())
	svc.Subscribe(bus)

	owner, renter := uuid.New(), uuid.New()
	base := events.BookingPayload{
		BookingID:      uuid.New(),
		EquipmentTitle: "Sony A7",
		RenterID:       renter,
		RenterName:     "Ravi",
		OwnerID:        owner,
		StartDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, bus.PublishJSON(events.BookingCreated, base))
	rejected := base
	rejected.Reason = "maintenance"
	require.NoError(t, bus.PublishJSON(events.BookingRejected, rejected))
	cancelled := base
	cancelled.ActorID = renter
	require.NoError(t, bus.PublishJSON(events.BookingCancelled, cancelled))
	require.NoError(t, bus.PublishJSON(events.BookingCompleted, base))
	require.NoError(t, bus.PublishJSON(events.PaymentSettled, events.PaymentPayload{
		PaymentID: uuid.New(), BookingID: base.BookingID, RenterID: renter, OwnerID: owner, Amount: 12345, Currency: "usd",
	}))
	require.NoError(t, bus.PublishJSON(events.MessageCreated, events.MessagePayload{
		ConversationID: uuid.New(), SenderID: owner, RecipientID: renter, Body: "see you",
	}))

	ownerList, err := svc.List(ctx, owner, nil, 0)
	require.NoError(t, err)
	ownerTypes := typesOf(ownerList.Items)
	assert.ElementsMatch(t, []Type{TypeBookingRequested, TypeBookingCancelled, TypeBookingCompleted, TypePaymentReceived}, ownerTypes)

	renterList, err := svc.List(ctx, renter, nil, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Type{TypeBookingRejected, TypeBookingCompleted, TypePaymentConfirmed, TypeNewMessage}, typesOf(renterList.Items))

	for _, n := range renterList.Items {
		switch n.Type {
		case TypeBookingRejected:
			assert.Contains(t, n.Body, "maintenance")
		case TypePaymentConfirmed:
			assert.Contains(t, n.Body, "123.45 USD")
		case TypeNewMessage:
			var data map[string]string
			require.NoError(t, json.Unmarshal(n.Data, &data))
			assert.Equal(t, owner.String(), data["sender_id"])
		}
	}
}

func typesOf(items []Notification) []Type {
	out := make([]Type, 0, len(items))
	for _, n := range items {
		out = append(out, n.Type)
	}
	return out
}

func TestPreview(t *testing.T) {
	long := make([]rune, previewLength+10)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, []rune(preview(string(long))), previewLength+3)
	assert.Equal(t, "short", preview("short"))
}
