package chat

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	store    *memStore
	notifier *stubNotifier
	dir      stubDirectory
}

func newFixture() *fixture {
	store := newMemStore()
	dir := directory()
	n := &stubNotifier{}
	svc := NewService(store, NewEngine(store, &memReserver{}, time.Millisecond), dir, n, nil)
	return &fixture{svc: svc, store: store, notifier: n, dir: dir}
}

var (
	admin  = auth.Actor{ID: adminID, Role: auth.RoleAdmin}
	seller = auth.Actor{ID: sellerID, Role: auth.RoleSeller}
)

func (f *fixture) open(t *testing.T) View {
	t.Helper()
	v, _, err := f.svc.CreateConversation(context.Background(), seller, adminID)
	require.NoError(t, err)
	return v
}

func TestGetOrCreateConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v, created, err := f.svc.GetOrCreateConversation(ctx, adminID, sellerID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, v.ParticipantInfo, 2)

	again, created, err := f.svc.GetOrCreateConversation(ctx, sellerID, adminID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v.ID, again.ID)

	_, _, err = f.svc.GetOrCreateConversation(ctx, sellerID, seller2ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, _, err = f.svc.GetOrCreateConversation(ctx, adminID, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, f.store.count())
}

func TestCreateConversationValidation(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.CreateConversation(context.Background(), seller, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.svc.CreateConversation(context.Background(), seller, sellerID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	f := newFixture()
	v := f.open(t)

	_, err := f.svc.SendMessage(context.Background(), v.ID, sellerID, " \n\t ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.store.messages)
	assert.Empty(t, f.notifier.pushed)
}

func TestSendMessageRejectsTempConversation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SendMessage(context.Background(), "temp-123", sellerID, "hi")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	msgs, err := f.svc.GetMessages(context.Background(), "temp-123", sellerID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendMessageAuthorization(t *testing.T) {
	f := newFixture()
	v := f.open(t)

	_, err := f.svc.SendMessage(context.Background(), v.ID, seller2ID, "hello")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.SendMessage(context.Background(), "no-such-conv", sellerID, "hello")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMessageReadFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.open(t)

	m, err := f.svc.SendMessage(ctx, v.ID, adminID, "  your payout is ready ")
	require.NoError(t, err)
	assert.Equal(t, "your payout is ready", m.Content)
	assert.Equal(t, sellerID, m.RecipientID)
	require.Len(t, f.notifier.pushed, 1)
	assert.Equal(t, pushed{UserID: sellerID, Event: EventNewMessage, Payload: m}, f.notifier.pushed[0])

	n, err := f.svc.GetUnreadCount(ctx, sellerID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := f.svc.ListMine(ctx, seller)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, m.ID, list[0].LastMessage.ID)
	assert.Equal(t, 1, list[0].UnreadCount)

	// the sender reading the thread does not clear the recipient's unread messages
	_, err = f.svc.GetMessages(ctx, v.ID, adminID)
	require.NoError(t, err)
	n, _ = f.svc.GetUnreadCount(ctx, sellerID)
	assert.Equal(t, 1, n)

	msgs, err := f.svc.GetMessages(ctx, v.ID, sellerID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	n, _ = f.svc.GetUnreadCount(ctx, sellerID)
	assert.Equal(t, 0, n)
}

func TestSendMessageSurvivesPushFailure(t *testing.T) {
	f := newFixture()
	f.notifier.fail = true
	v := f.open(t)

	_, err := f.svc.SendMessage(context.Background(), v.ID, sellerID, "hi")
	require.NoError(t, err)
	assert.Len(t, f.store.messages, 1)
}

func TestSameAccountUnderAnotherID(t *testing.T) {
	f := newFixture()
	v := f.open(t)
	f.dir["legacy-seller"] = users.User{ID: "legacy-seller", Email: "seller@x.io", Role: auth.RoleSeller, Approved: true}

	m, err := f.svc.SendMessage(context.Background(), v.ID, "legacy-seller", "hello")
	require.NoError(t, err)
	assert.Equal(t, sellerID, m.SenderID)
	assert.Equal(t, adminID, m.RecipientID)
}

func TestConversationsByUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v := f.open(t)

	got, err := f.svc.ConversationsByUser(ctx, seller, "admin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, v.ID, got[0].ID)

	got, err = f.svc.ConversationsByUser(ctx, seller, "me")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ConversationsByUser(ctx, seller, seller2ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err = f.svc.ConversationsByUser(ctx, admin, sellerID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.ConversationsByUser(ctx, admin, seller2ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	seller2 := auth.Actor{ID: seller2ID, Role: auth.RoleSeller}
	got, err = f.svc.ConversationsByUser(ctx, seller2, "admin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTyping(t *testing.T) {
	f := newFixture()
	v := f.open(t)

	require.NoError(t, f.svc.Typing(context.Background(), v.ID, sellerID, true))
	require.NoError(t, f.svc.Typing(context.Background(), v.ID, sellerID, false))
	require.Len(t, f.notifier.pushed, 2)
	assert.Equal(t, adminID, f.notifier.pushed[0].UserID)
	assert.Equal(t, EventTyping, f.notifier.pushed[0].Event)
	assert.Equal(t, EventStopTyping, f.notifier.pushed[1].Event)

	err := f.svc.Typing(context.Background(), v.ID, seller2ID, true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
