// Package supporttest репозитории поддержки в памяти для тестов
package supporttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/N1seb/Render/internal/domain"
)

// Requests обращения и переписка в памяти
type Requests struct {
	mu       sync.Mutex
	seq      int64
	requests map[int64]*domain.SupportRequest
	messages []domain.SupportMessage
}

func NewRequests() *Requests {
	return &Requests{requests: map[int64]*domain.SupportRequest{}}
}

func (m *Requests) CreateRequest(_ context.Context, r *domain.SupportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = m.seq
	if r.Status == "" {
		r.Status = domain.SupportStatusOpen
	}
	r.CreatedAt = time.Now()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *Requests) GetRequest(_ context.Context, id int64) (*domain.SupportRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %d: %w", id, domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *Requests) GetOpenByChat(_ context.Context, chatID int64) (*domain.SupportRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *domain.SupportRequest
	for _, r := range m.requests {
		if r.ChatID == chatID && r.Status == domain.SupportStatusOpen && (found == nil || r.ID > found.ID) {
			found = r
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *Requests) Close(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != domain.SupportStatusOpen {
		return false, nil
	}
	r.Status = domain.SupportStatusClosed
	return true, nil
}

func (m *Requests) ListOpen(_ context.Context, offset, limit int) ([]domain.SupportRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []domain.SupportRequest
	for id := int64(1); id <= m.seq; id++ {
		if r, ok := m.requests[id]; ok && r.Status == domain.SupportStatusOpen {
			open = append(open, *r)
		}
	}
	total := len(open)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return open[offset:end], total, nil
}

func (m *Requests) AddMessage(_ context.Context, msg *domain.SupportMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = int64(len(m.messages) + 1)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *Requests) ListMessages(_ context.Context, requestID int64) ([]domain.SupportMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SupportMessage
	for _, msg := range m.messages {
		if msg.RequestID == requestID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Operators операторы в памяти, порядок добавления сохраняется
type Operators struct {
	mu  sync.Mutex
	ops []domain.Operator
}

func NewOperators(ops ...domain.Operator) *Operators {
	return &Operators{ops: ops}
}

func (m *Operators) Add(_ context.Context, op *domain.Operator) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ops {
		if existing.ChatID == op.ChatID {
			return false, nil
		}
	}
	m.ops = append(m.ops, *op)
	return true, nil
}

func (m *Operators) Remove(_ context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, op := range m.ops {
		if op.ChatID == chatID {
			m.ops = append(m.ops[:i], m.ops[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Operators) List(context.Context) ([]domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Operator(nil), m.ops...), nil
}

func (m *Operators) Exists(_ context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.ops {
		if op.ChatID == chatID {
			return true, nil
		}
	}
	return false, nil
}

// Messages переписка по обращению
func (m *Requests) Messages(requestID int64) []domain.SupportMessage {
	out, _ := m.ListMessages(context.Background(), requestID)
	return out
}
