// Package state 保存一个浏览器会话的表单、结果区和提示横幅,
// 替代页面中的全局 DOM 访问。所有方法可并发调用。
package state

import (
	"html/template"
	"sync"
	"time"

	"github.com/domain-cutover/internal/model"
	"golang.org/x/sync/semaphore"
)

// Slot 是页面上的横幅容器
type Slot string

const (
	SlotSettingsStatus Slot = "settingsStatus"  // 控制台中的设置状态
	SlotAlert          Slot = "alert-container" // 独立设置页
)

type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// Form 对应页面上的输入框
type Form struct {
	Domains     string            `json:"domains"`
	IPAddress   string            `json:"ip_address"`
	Credentials model.Credentials `json:"credentials"`
}

type bannerEntry struct {
	banner Banner
	gen    uint64
}

type ClientState struct {
	mu       sync.Mutex
	form     Form
	results  template.HTML
	banners  map[Slot]bannerEntry
	gen      uint64
	redactAt uint64
	timers   map[uint64]*time.Timer
	timerID  uint64
	inflight map[string]*semaphore.Weighted
	closed   bool
}

func New() *ClientState {
	return &ClientState{
		banners:  make(map[Slot]bannerEntry),
		timers:   make(map[uint64]*time.Timer),
		inflight: make(map[string]*semaphore.Weighted),
	}
}

func (s *ClientState) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetInput 更新域名和 IP 输入框
func (s *ClientState) SetInput(domains, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Domains = domains
	s.form.IPAddress = ip
}

func (s *ClientState) SetCredentials(c model.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Credentials = c
	// 新的凭据覆盖之前排队的清除
	s.redactAt = 0
}

func (s *ClientState) Results() template.HTML {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// SetResults 替换结果区内容, 后完成的请求覆盖先完成的
func (s *ClientState) SetResults(h template.HTML) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = h
}

// ShowBanner 显示横幅, ttl 后自动清除; 新横幅不会被旧的定时器清除
func (s *ClientState) ShowBanner(slot Slot, kind BannerKind, msg string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	s.banners[slot] = bannerEntry{banner: Banner{Kind: kind, Message: msg}, gen: gen}
	s.afterLocked(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.banners[slot]; ok && e.gen == gen {
			delete(s.banners, slot)
		}
	})
}

func (s *ClientState) Banner(slot Slot) (Banner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.banners[slot]
	return e.banner, ok
}

// ScheduleRedact 在 delay 之后清空两个 API 密钥输入框
func (s *ClientState) ScheduleRedact(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	s.redactAt = gen
	s.afterLocked(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.redactAt != gen {
			return
		}
		s.form.Credentials.CloudflareAPIKey = ""
		s.form.Credentials.RegistrarAPIKey = ""
		s.redactAt = 0
	})
}

// RedactPending 表示保存成功后密钥清除尚未执行
func (s *ClientState) RedactPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redactAt != 0
}

// TryBegin 标记 action 开始执行; 同一 action 已在执行时返回 ok=false
func (s *ClientState) TryBegin(action string) (release func(), ok bool) {
	s.mu.Lock()
	sem, exists := s.inflight[action]
	if !exists {
		sem = semaphore.NewWeighted(1)
		s.inflight[action] = sem
	}
	s.mu.Unlock()

	if !sem.TryAcquire(1) {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, true
}

// Close 停止所有尚未触发的定时器
func (s *ClientState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *ClientState) afterLocked(d time.Duration, f func()) {
	if s.closed {
		return
	}
	s.timerID++
	id := s.timerID
	s.timers[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		f()
	})
}

// Snapshot 是用于 JSON 接口的只读视图, 密钥已脱敏
type Snapshot struct {
	Form    Form            `json:"form"`
	Results string          `json:"results"`
	Banners map[Slot]Banner `json:"banners"`
}

func (s *ClientState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := s.form
	form.Credentials = form.Credentials.Masked()
	banners := make(map[Slot]Banner, len(s.banners))
	for k, e := range s.banners {
		banners[k] = e.banner
	}
	return Snapshot{Form: form, Results: string(s.results), Banners: banners}
}
