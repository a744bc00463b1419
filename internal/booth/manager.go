package booth

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"velvetlens/internal/camera"
)

// Manager は複数のセッションを管理する
type Manager struct {
	config   Config
	clock    Clock
	sessions map[uuid.UUID]*Session
	source   *camera.Acquisition // 新しいセッションに接続する共有カメラ
	mu       sync.RWMutex
}

// NewManager は新しいManagerを作成する
func NewManager(cfg Config, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock
	}
	return &Manager{
		config:   cfg.withDefaults(),
		clock:    clock,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Config は設定を返す
func (m *Manager) Config() Config {
	return m.config
}

// SetSource は共有カメラを設定し、既存のセッションにも接続する
func (m *Manager) SetSource(acq *camera.Acquisition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.source = acq
	for _, s := range m.sessions {
		s.AttachSource(acq)
	}
}

// Source は共有カメラを返す
func (m *Manager) Source() *camera.Acquisition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.source
}

// Create は新しいセッションを作成する
func (m *Manager) Create(observers ...Observer) *Session {
	s := NewSession(m.config, m.clock)
	for _, o := range observers {
		s.Observe(o)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source != nil {
		s.AttachSource(m.source)
	}
	m.sessions[s.ID()] = s

	log.Printf("セッションを作成しました: %s", s.ID())
	return s
}

// Get は指定されたIDのセッションを返す
func (m *Manager) Get(id string) (*Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[uid]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove はセッションを破棄する。リールも一緒に破棄される
func (m *Manager) Remove(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID())

	log.Printf("セッションを破棄しました: %s", s.ID())
	return nil
}

// Sessions は作成順のセッション一覧を返す
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Len はセッション数を返す
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
