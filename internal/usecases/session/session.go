package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"golang.org/x/time/rate"
)

// State шаг диалога
type State string

const (
	StateIdle                   State = "idle"
	StateAwaitingQuantity       State = "awaiting_quantity"
	StateAwaitingLink           State = "awaiting_link"
	StateAwaitingDecision       State = "awaiting_decision"
	StateAwaitingSupportMessage State = "awaiting_support_message"
	StateAwaitingOperatorReply  State = "awaiting_operator_reply"
)

// Session состояние диалога одного чата. Не переживает рестарт
type Session struct {
	State    State
	Network  domain.Network
	Service  domain.ServiceKey
	Quantity int64
	Link     string

	// RequestID обращение, на которое отвечает оператор
	RequestID int64
	// ReplyToChatID пользователь, которому уйдёт ответ оператора
	ReplyToChatID int64

	UpdatedAt time.Time
}

func (s Session) IsIdle() bool {
	return s.State == "" || s.State == StateIdle
}

type Config struct {
	TTL             time.Duration `envconfig:"TTL" default:"30m"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`
	// RatePerSecond и Burst ограничивают частоту апдейтов одного чата
	RatePerSecond float64 `envconfig:"RATE_PER_SECOND" default:"3"`
	Burst         int     `envconfig:"BURST" default:"6"`
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Manager хранит сессии в памяти и сериализует обработку апдейтов одного чата
type Manager struct {
	cfg Config
	log *slog.Logger
	now func() time.Time

	mu       sync.Mutex
	sessions map[int64]Session
	locks    map[int64]*chatLock
	limiters map[int64]*chatLimiter
}

func NewManager(cfg Config, log *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 3
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 6
	}

	return &Manager{
		cfg:      cfg,
		log:      log.With("component", "sessions"),
		now:      time.Now,
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*chatLock),
		limiters: make(map[int64]*chatLimiter),
	}
}

// Lock захватывает чат. Апдейты одного чата обрабатываются по очереди,
// разные чаты друг друга не ждут
func (m *Manager) Lock(chatID int64) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &chatLock{}
		m.locks[chatID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			m.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, chatID)
			}
			m.mu.Unlock()
		})
	}
}

// Get сессия чата, для нового чата idle
func (m *Manager) Get(chatID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return Session{State: StateIdle}
	}
	return s
}

func (m *Manager) Set(chatID int64, s Session) {
	if s.State == "" {
		s.State = StateIdle
	}
	s.UpdatedAt = m.now()

	m.mu.Lock()
	m.sessions[chatID] = s
	m.mu.Unlock()
}

// Reset возвращает чат в idle
func (m *Manager) Reset(chatID int64) {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
}

// Allow false, если чат превысил частоту апдейтов
func (m *Manager) Allow(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[chatID]
	if !ok {
		l = &chatLimiter{limiter: rate.NewLimiter(rate.Limit(m.cfg.RatePerSecond), m.cfg.Burst)}
		m.limiters[chatID] = l
	}
	l.lastSeen = m.now()
	return l.limiter.AllowN(l.lastSeen, 1)
}

// Evict удаляет сессии и лимитеры, не обновлявшиеся дольше TTL
func (m *Manager) Evict() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(-m.cfg.TTL)
	evicted := 0
	for chatID, s := range m.sessions {
		if s.UpdatedAt.Before(deadline) {
			delete(m.sessions, chatID)
			evicted++
		}
	}
	for chatID, l := range m.limiters {
		if l.lastSeen.Before(deadline) {
			delete(m.limiters, chatID)
		}
	}
	return evicted
}

// Run периодически чистит протухшие сессии до отмены ctx
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()

	m.log.Info("session janitor started", "ttl", m.cfg.TTL, "interval", m.cfg.JanitorInterval)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			if n := m.Evict(); n > 0 {
				m.log.Debug("sessions evicted", "count", n)
			}
		}
	}
}
