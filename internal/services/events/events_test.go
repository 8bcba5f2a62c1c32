package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, event domain.InboundEvent) error

func (f handlerFunc) HandleEvent(ctx context.Context, event domain.InboundEvent) error {
	return f(ctx, event)
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(1, logger.Nop())
	bus.Close()
	bus.Close()

	err := bus.Publish(context.Background(), domain.InboundEvent{Kind: domain.InboundEventChat})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_PublishRespectsContext(t *testing.T) {
	bus := NewBus(1, logger.Nop())
	require.NoError(t, bus.Publish(context.Background(), domain.InboundEvent{Kind: domain.InboundEventChat}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, domain.InboundEvent{Kind: domain.InboundEventChat})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_RoutesByKind(t *testing.T) {
	bus := NewBus(8, logger.Nop())
	d := NewDispatcher(Config{MaxConcurrency: 2}, bus, nil, logger.Nop())

	var (
		wg       sync.WaitGroup
		chats    atomic.Int32
		payments atomic.Int32
	)
	wg.Add(3)
	d.Register(domain.InboundEventChat, handlerFunc(func(context.Context, domain.InboundEvent) error {
		defer wg.Done()
		chats.Add(1)
		return nil
	}))
	d.Register(domain.InboundEventPayment, handlerFunc(func(context.Context, domain.InboundEvent) error {
		defer wg.Done()
		payments.Add(1)
		return errors.New("handler errors are logged, not fatal")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, bus.Publish(ctx, domain.NewChatEvent(&domain.Update{UpdateID: 1})))
	require.NoError(t, bus.Publish(ctx, domain.NewPaymentInboundEvent(&domain.PaymentEvent{InvoiceID: "IV1"})))
	require.NoError(t, bus.Publish(ctx, domain.NewChatEvent(&domain.Update{UpdateID: 2})))

	wg.Wait()
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, int32(2), chats.Load())
	assert.Equal(t, int32(1), payments.Load())
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	bus := NewBus(16, logger.Nop())
	d := NewDispatcher(Config{MaxConcurrency: 2}, bus, nil, logger.Nop())

	var (
		active, peak atomic.Int32
		wg           sync.WaitGroup
	)
	wg.Add(6)
	d.Register(domain.InboundEventChat, handlerFunc(func(context.Context, domain.InboundEvent) error {
		defer wg.Done()
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	for i := 0; i < 6; i++ {
		require.NoError(t, bus.Publish(ctx, domain.NewChatEvent(&domain.Update{UpdateID: int64(i)})))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	bus := NewBus(4, logger.Nop())
	d := NewDispatcher(Config{}, bus, nil, logger.Nop())

	handled := make(chan struct{}, 2)
	d.Register(domain.InboundEventChat, handlerFunc(func(_ context.Context, event domain.InboundEvent) error {
		handled <- struct{}{}
		if event.Update.UpdateID == 1 {
			panic("boom")
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	require.NoError(t, bus.Publish(ctx, domain.NewChatEvent(&domain.Update{UpdateID: 1})))
	require.NoError(t, bus.Publish(ctx, domain.NewChatEvent(&domain.Update{UpdateID: 2})))

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(time.Second):
			t.Fatal("dispatcher stopped after a panic")
		}
	}
}

func chatEvent(chatID, updateID int64) domain.InboundEvent {
	return domain.NewChatEvent(&domain.Update{
		UpdateID: updateID,
		Message:  &domain.Message{Chat: &domain.Chat{ID: chatID, Type: "private"}},
	})
}

func TestDispatcher_BusyChatDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(32, logger.Nop())
	d := NewDispatcher(Config{MaxConcurrency: 4, PaymentConcurrency: 1}, bus, nil, logger.Nop())

	release := make(chan struct{})
	handled := make(chan int64, 16)
	var active, peak atomic.Int32
	d.Register(domain.InboundEventChat, handlerFunc(func(_ context.Context, event domain.InboundEvent) error {
		if event.ChatID() == 1 {
			n := active.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			<-release
			active.Add(-1)
		}
		handled <- event.ChatID()
		return nil
	}))
	d.Register(domain.InboundEventPayment, handlerFunc(func(context.Context, domain.InboundEvent) error {
		handled <- -1
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	for i := int64(0); i < 6; i++ {
		require.NoError(t, bus.Publish(ctx, chatEvent(1, i)))
	}
	require.NoError(t, bus.Publish(ctx, chatEvent(2, 10)))
	require.NoError(t, bus.Publish(ctx, domain.NewPaymentInboundEvent(&domain.PaymentEvent{InvoiceID: "IV1"})))

	got := map[int64]bool{}
	for len(got) < 2 {
		select {
		case chatID := <-handled:
			require.NotEqual(t, int64(1), chatID, "busy chat must still be blocked")
			got[chatID] = true
		case <-time.After(time.Second):
			t.Fatal("unrelated events waited for a busy chat")
		}
	}
	assert.True(t, got[2])
	assert.True(t, got[-1])

	close(release)
	for i := 0; i < 6; i++ {
		select {
		case chatID := <-handled:
			assert.Equal(t, int64(1), chatID)
		case <-time.After(time.Second):
			t.Fatal("busy chat events were not drained")
		}
	}
	assert.Equal(t, int32(1), peak.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestDispatcher_ChatQueueOverflowDropsEvents(t *testing.T) {
	bus := NewBus(8, logger.Nop())
	d := NewDispatcher(Config{ChatQueueSize: 1}, bus, nil, logger.Nop())

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var count atomic.Int32
	d.Register(domain.InboundEventChat, handlerFunc(func(context.Context, domain.InboundEvent) error {
		if count.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, bus.Publish(ctx, chatEvent(5, 1)))
	<-started
	for i := int64(2); i <= 4; i++ {
		require.NoError(t, bus.Publish(ctx, chatEvent(5, i)))
	}

	// ждём, пока диспетчер разберёт шину: одно событие в очереди, два отброшены
	require.Eventually(t, func() bool { return len(bus.Events()) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), count.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestDispatcher_RunWaitsForInFlightHandlers(t *testing.T) {
	bus := NewBus(4, logger.Nop())
	d := NewDispatcher(Config{}, bus, nil, logger.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	d.Register(domain.InboundEventPayment, handlerFunc(func(ctx context.Context, _ domain.InboundEvent) error {
		close(started)
		<-release
		// контекст обработчика переживает остановку диспетчера
		if ctx.Err() == nil {
			finished.Store(true)
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, bus.Publish(ctx, domain.NewPaymentInboundEvent(&domain.PaymentEvent{InvoiceID: "IV1"})))
	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.True(t, finished.Load())
}
