package session

import (
	"context"
	"sync"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/collector"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/processor"
	"github.com/google/uuid"
)

// OpenRequest 二选一：给出 HTML 时直接使用，否则按 URL 抓取
type OpenRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
	// Render 为 true 时走渲染服务，拿到首屏可见区域
	Render bool `json:"render"`
}

// Manager 按 ID 保存会话，空闲超过 TTL 的会话由 Sweep 回收
type Manager struct {
	deps      Deps
	ttl       time.Duration
	fetcher   collector.Fetcher
	renderer  *collector.RenderClient
	processor *processor.SimpleProcessor

	mu       sync.Mutex
	sessions map[string]*Session
}

type ManagerOption func(*Manager)

func WithFetcher(f collector.Fetcher) ManagerOption { return func(m *Manager) { m.fetcher = f } }

func WithRenderer(r *collector.RenderClient) ManagerOption {
	return func(m *Manager) { m.renderer = r }
}

func WithTTL(d time.Duration) ManagerOption { return func(m *Manager) { m.ttl = d } }

func NewManager(deps Deps, opts ...ManagerOption) *Manager {
	m := &Manager{
		deps:      deps,
		ttl:       30 * time.Minute,
		fetcher:   collector.NewStaticFetcher(),
		processor: processor.NewSimpleProcessor(),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open 抓取（或直接使用给定的）页面并创建会话。渲染得到的首屏区域会立即执行一轮。
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Session, *PassResult, error) {
	if req.URL == "" && req.HTML == "" {
		return nil, nil, apperrors.New(apperrors.KindInvalidInput, "session.open", "url or html is required", nil)
	}

	var raw collector.Page
	switch {
	case req.HTML != "":
		raw = collector.Page{URL: req.URL, HTML: req.HTML, FetchedAt: m.deps.now()}
	case req.Render && m.renderer != nil:
		p, err := m.renderer.Fetch(ctx, req.URL)
		if err != nil {
			return nil, nil, err
		}
		raw = *p
	default:
		p, err := m.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return nil, nil, err
		}
		raw = *p
	}

	pages := m.processor.Process([]collector.Page{raw})
	page := pages[0]
	id := processor.HashURL(page.URL + "#" + uuid.NewString())

	s, err := New(ctx, page, id, m.deps)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	logger.Info("session opened", "id", id, "url", page.URL, "regions", s.RegionCount())

	if len(page.Visible) == 0 {
		return s, nil, nil
	}
	res, err := s.Pass(ctx, IndexSet(page.Visible))
	if err != nil {
		// 会话仍然可用，失败的区域留给下一轮
		logger.Warn("initial pass failed", "id", id, "error", err)
		return s, nil, nil
	}
	return s, res, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Visible 通过渲染服务计算给定滚动位置下的可见区域
func (m *Manager) Visible(ctx context.Context, s *Session, width, height, scrollY int) (Viewport, error) {
	if m.renderer == nil {
		return nil, apperrors.ConfigurationGap("session.visible", "renderer is not configured")
	}
	p, err := m.renderer.Render(ctx, collector.RenderRequest{URL: s.URL, Width: width, Height: height, ScrollY: scrollY})
	if err != nil {
		return nil, err
	}
	return IndexSet(p.Visible), nil
}

func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Sweep 回收空闲超过 TTL 的会话，返回回收数量
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.ttl {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		logger.Info("idle sessions evicted", "count", len(idle))
	}
	return len(idle)
}

// Resume 在连接恢复后重跑失败过的会话
func (m *Manager) Resume(ctx context.Context) int {
	m.mu.Lock()
	var pending []*Session
	for _, s := range m.sessions {
		pending = append(pending, s)
	}
	m.mu.Unlock()

	n := 0
	for _, s := range pending {
		if !s.Pending() {
			continue
		}
		if _, err := s.Pass(ctx, IndexSet(nil)); err != nil {
			logger.Warn("resume pass failed", "id", s.ID, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		logger.Info("pending sessions resumed", "count", n)
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
