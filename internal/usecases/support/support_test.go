package support

import (
	"context"
	"testing"

	"github.com/N1seb/Render/internal/adapters/secondary/telegram/telegramtest"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/N1seb/Render/internal/usecases/support/supporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID    = int64(900)
	operatorID = int64(800)
	userID     = int64(7)
)

func newTestService(t *testing.T) (*Service, *supporttest.Requests, *telegramtest.Gateway) {
	t.Helper()

	store := supporttest.NewRequests()
	ops := supporttest.NewOperators(
		domain.Operator{ChatID: operatorID, DisplayName: "op"},
		domain.Operator{ChatID: adminID, DisplayName: "admin"},
	)
	gateway := telegramtest.NewGateway()
	return New(Config{PageSize: 2}, store, ops, gateway, []int64{adminID}, logger.Nop()), store, gateway
}

func TestSubmit_OpensRequestAndFansOut(t *testing.T) {
	svc, store, gateway := newTestService(t)
	ctx := context.Background()

	request, err := svc.Submit(ctx, Message{ChatID: userID, From: "@alice", Text: "заказ не выполнен"})
	require.NoError(t, err)
	assert.Equal(t, domain.SupportStatusOpen, request.Status)

	for _, op := range []int64{operatorID, adminID} {
		got := gateway.To(op)
		require.Len(t, got, 1, "admin is notified once even though also an operator")
		assert.Contains(t, got[0].Text, "заказ не выполнен")
		require.Len(t, got[0].Keyboard, 1)
		assert.Equal(t, "rep:1", got[0].Keyboard[0][0].CallbackData)
		assert.Equal(t, "cls:1", got[0].Keyboard[0][1].CallbackData)
	}

	again, err := svc.Submit(ctx, Message{ChatID: userID, Text: "ещё деталь"})
	require.NoError(t, err)
	assert.Equal(t, request.ID, again.ID, "follow-up goes to the same open request")

	messages, _ := store.ListMessages(ctx, request.ID)
	assert.Len(t, messages, 2)
}

func TestSubmit_ForwardsAttachment(t *testing.T) {
	svc, store, gateway := newTestService(t)
	ctx := context.Background()

	request, err := svc.Submit(ctx, Message{ChatID: userID, Kind: domain.MessageKindPhoto, FileID: "PHOTO1"})
	require.NoError(t, err)
	assert.Equal(t, "[photo]", request.Text)

	got := gateway.To(operatorID)
	require.Len(t, got, 2)
	assert.Equal(t, domain.MessageKindPhoto, got[1].Kind)
	assert.Equal(t, "PHOTO1", got[1].FileID)

	messages, _ := store.ListMessages(ctx, request.ID)
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].FileID)
	assert.Equal(t, "PHOTO1", *messages[0].FileID)
}

func TestSubmit_DeliveryFailureIsNotFatal(t *testing.T) {
	svc, _, gateway := newTestService(t)
	gateway.Blocked[operatorID] = true

	_, err := svc.Submit(context.Background(), Message{ChatID: userID, Text: "help"})
	require.NoError(t, err)
	assert.Len(t, gateway.To(adminID), 1)
}

func TestReply(t *testing.T) {
	svc, store, gateway := newTestService(t)
	ctx := context.Background()

	request, err := svc.Submit(ctx, Message{ChatID: userID, Text: "help"})
	require.NoError(t, err)

	_, err = svc.Reply(ctx, operatorID, request.ID, Message{Text: "уже проверяем"})
	require.NoError(t, err)

	got := gateway.To(userID)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "уже проверяем")

	messages, _ := store.ListMessages(ctx, request.ID)
	last := messages[len(messages)-1]
	assert.Equal(t, domain.DirectionOperatorToUser, last.Direction)
	assert.Equal(t, operatorID, last.FromChatID)
	require.NotNil(t, last.ToChatID)
	assert.Equal(t, userID, *last.ToChatID)
}

func TestReply_Forbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	request, err := svc.Submit(ctx, Message{ChatID: userID, Text: "help"})
	require.NoError(t, err)

	_, err = svc.Reply(ctx, 12345, request.ID, Message{Text: "I am not an operator"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCloseThenReply(t *testing.T) {
	svc, _, gateway := newTestService(t)
	ctx := context.Background()

	request, err := svc.Submit(ctx, Message{ChatID: userID, Text: "help"})
	require.NoError(t, err)

	closed, err := svc.Close(ctx, operatorID, request.ID)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Len(t, gateway.To(userID), 1)

	closed, err = svc.Close(ctx, adminID, request.ID)
	require.NoError(t, err)
	assert.False(t, closed, "second close is a no-op")
	assert.Len(t, gateway.To(userID), 1)

	_, err = svc.Reply(ctx, operatorID, request.ID, Message{Text: "late"})
	assert.ErrorIs(t, err, ErrRequestClosed)

	next, err := svc.Submit(ctx, Message{ChatID: userID, Text: "снова"})
	require.NoError(t, err)
	assert.NotEqual(t, request.ID, next.ID, "closed request is not reopened")
}

func TestListOpen_Pagination(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for chat := int64(1); chat <= 5; chat++ {
		_, err := svc.Submit(ctx, Message{ChatID: chat, Text: "q"})
		require.NoError(t, err)
	}

	page, err := svc.ListOpen(ctx, operatorID, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.True(t, page.HasPrev())
	assert.True(t, page.HasNext())

	last, err := svc.ListOpen(ctx, operatorID, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasNext())

	_, err = svc.ListOpen(ctx, userID, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
