// Package session 为每个浏览器会话组装一套独立的状态和组件,
// 相当于每个浏览器标签页各自拥有的 DOM 与 localStorage。
package session

import (
	"sync"
	"time"

	"github.com/domain-cutover/internal/credstore"
	"github.com/domain-cutover/internal/render"
	"github.com/domain-cutover/internal/settings"
	"github.com/domain-cutover/internal/stage"
	"github.com/domain-cutover/internal/state"
	"github.com/domain-cutover/internal/storage"
	"github.com/domain-cutover/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend 同时满足设置接口和步骤接口
type Backend interface {
	settings.Backend
	stage.Backend
}

type Session struct {
	ID          string
	State       *state.ClientState
	Credentials *credstore.Store
	Settings    *settings.Client
	Runner      *stage.Runner

	lastSeen time.Time // 由 Manager.mu 保护
}

// Limits 控制会话的回收。凭据在存储中, 回收只丢弃表单、结果区和横幅。
type Limits struct {
	IdleTimeout time.Duration // 超过该时间未访问的会话在清理时回收, 0 表示不按时间回收
	MaxSessions int           // 会话数上限, 超出时回收最久未访问的会话, 0 表示不限
}

// DefaultLimits 空闲两小时回收, 最多 1000 个会话
func DefaultLimits() Limits {
	return Limits{IdleTimeout: 2 * time.Hour, MaxSessions: 1000}
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	limits   Limits
	now      func() time.Time
	stop     chan struct{}
	wg       sync.WaitGroup

	provider   storage.Provider
	backend    Backend
	renderer   *render.Renderer
	opts       settings.Options
	defaultURL string
}

func NewManager(p storage.Provider, b Backend, opts settings.Options, defaultRegistrarURL string) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		limits:     DefaultLimits(),
		now:        time.Now,
		provider:   p,
		backend:    b,
		renderer:   render.New(),
		opts:       opts,
		defaultURL: defaultRegistrarURL,
	}
}

func (m *Manager) Renderer() *render.Renderer { return m.renderer }

// NewID 生成新的会话ID
func NewID() string { return uuid.NewString() }

// ValidID 只接受 uuid 格式的会话ID, 避免任意字符串进入存储键
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SetLimits 替换回收策略, 在开始处理请求之前调用
func (m *Manager) SetLimits(l Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = l
}

// Get 返回会话, 不存在时创建; 达到上限时先回收最久未访问的会话
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if s, ok := m.sessions[id]; ok {
		s.lastSeen = now
		return s
	}
	if m.limits.MaxSessions > 0 {
		for len(m.sessions) >= m.limits.MaxSessions {
			m.evictOldestLocked()
		}
	}
	s := m.build(id)
	s.lastSeen = now
	m.sessions[id] = s
	return s
}

// Lookup 只返回已存在的会话, 不会创建
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
	}
	return s, ok
}

// Sweep 回收空闲超时的会话, 返回回收数量
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limits.IdleTimeout <= 0 {
		return 0
	}
	deadline := m.now().Add(-m.limits.IdleTimeout)
	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(deadline) {
			m.evictLocked(id, s)
			n++
		}
	}
	return n
}

// StartSweeper 按 interval 周期性调用 Sweep, 直到 Close
func (m *Manager) StartSweeper(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil || interval <= 0 {
		return
	}
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go func(stop <-chan struct{}) {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Logger.Info("回收空闲会话", zap.Int("evicted", n), zap.Int("remaining", m.Len()))
				}
			}
		}
	}(m.stop)
}

func (m *Manager) evictOldestLocked() {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		m.evictLocked(oldest.ID, oldest)
	}
}

func (m *Manager) evictLocked(id string, s *Session) {
	s.State.Close()
	delete(m.sessions, id)
}

func (m *Manager) build(id string) *Session {
	st := state.New()
	store := credstore.New(m.provider.Namespace(id), m.defaultURL)
	return &Session{
		ID:          id,
		State:       st,
		Credentials: store,
		Settings:    settings.New(m.backend, store, st, m.opts),
		Runner:      stage.NewRunner(m.backend, store, st, m.renderer),
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close 停止清理协程和所有会话中未触发的定时器
func (m *Manager) Close() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	for id, s := range m.sessions {
		m.evictLocked(id, s)
	}
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		m.wg.Wait()
	}
}
