// Package monitor 跟踪翻译服务的连通性：失败后按 (2^k-1) 秒退避重试，不设上限。
// 它只提供健康信号与重连入口，不阻塞翻译请求。
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/LJTian/WordWeave/internal/logger"
)

type State int

const (
	Unknown State = iota
	Probing
	Reachable
	Unreachable
)

func (s State) String() string {
	switch s {
	case Probing:
		return "probing"
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

// 合法迁移表
var transitions = map[State][]State{
	Unknown:     {Probing},
	Probing:     {Reachable, Unreachable},
	Reachable:   {Probing},
	Unreachable: {Probing},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// 确认成功的提示在这段时间后收起
const confirmDelay = 500 * time.Millisecond

// Delay 返回第 k 次失败后的等待时间；溢出时取最大时长
func Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	if attempt > 33 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(int64(1)<<attempt-1) * time.Second
}

type Timer interface {
	Stop() bool
}

// Scheduler 是监控唯一的计时来源，测试中替换为手动触发的实现
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler 基于 time.AfterFunc
func RealScheduler() Scheduler { return realScheduler{} }

type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Status 是对外展示的快照
type Status struct {
	State       string    `json:"state"`
	Attempt     int       `json:"attempt"`
	NextRetryAt time.Time `json:"nextRetryAt,omitempty"`
	RetryIn     int       `json:"retryInSeconds"`
	URL         string    `json:"url"`
	Banner      string    `json:"banner,omitempty"`
}

type Monitor struct {
	mu sync.Mutex

	prober  Prober
	sched   Scheduler
	surface Surface
	service string
	log     *slog.Logger

	state       State
	attempt     int
	nextRetryAt time.Time
	url         string
	ctx         context.Context
	banner      string
	bannerShown bool
	// down 标记自上次成功以来是否失败过
	down bool

	// gen 每次重新开始探测时递增，过期的定时回调据此丢弃
	gen        int
	retryTimer Timer
	tickTimer  Timer
	hideTimer  Timer

	onRecover func()
}

type Option func(*Monitor)

func WithScheduler(s Scheduler) Option { return func(m *Monitor) { m.sched = s } }
func WithSurface(s Surface) Option     { return func(m *Monitor) { m.surface = s } }

// WithServiceName 用于提示文案，例如 "Google"
func WithServiceName(name string) Option { return func(m *Monitor) { m.service = name } }

// OnRecover 在 Unreachable -> Reachable 时调用，用于恢复挂起的翻译
func OnRecover(f func()) Option { return func(m *Monitor) { m.onRecover = f } }

func New(p Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:  p,
		sched:   RealScheduler(),
		surface: NopSurface{},
		service: "Translator",
		log:     logger.L().With("component", "monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 在流水线开始时调用。正在探测或已在退避等待时不打断当前节奏。
func (m *Monitor) Start(ctx context.Context, url string) {
	m.mu.Lock()
	if m.state == Probing || (m.state == Unreachable && m.url == url) {
		m.mu.Unlock()
		return
	}
	m.url = url
	m.ctx = context.WithoutCancel(ctx)
	g := m.beginProbeLocked()
	m.mu.Unlock()

	m.probe(g)
}

// RetryNow 手动重连：计数归零并立即探测
func (m *Monitor) RetryNow(ctx context.Context) {
	m.mu.Lock()
	if m.state == Probing || m.url == "" {
		m.mu.Unlock()
		return
	}
	m.attempt = 0
	m.ctx = context.WithoutCancel(ctx)
	g := m.beginProbeLocked()
	m.mu.Unlock()

	m.probe(g)
}

// Stop 取消所有定时器，之后到期的回调全部丢弃
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.stopTimersLocked()
}

func (m *Monitor) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		State:   m.state.String(),
		Attempt: m.attempt,
		URL:     m.url,
	}
	if m.bannerShown {
		st.Banner = m.banner
	}
	if m.state == Unreachable {
		st.NextRetryAt = m.nextRetryAt
		st.RetryIn = secondsUntil(m.nextRetryAt, m.sched.Now())
	}
	return st
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) beginProbeLocked() int {
	m.stopTimersLocked()
	m.gen++
	m.transitionLocked(Probing)
	return m.gen
}

func (m *Monitor) probe(g int) {
	m.mu.Lock()
	ctx, url := m.ctx, m.url
	m.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	err := m.prober.Probe(ctx, url)
	m.finish(g, err)
}

func (m *Monitor) finish(g int, err error) {
	m.mu.Lock()
	if g != m.gen {
		m.mu.Unlock()
		return
	}

	url := m.url
	if err == nil {
		recovered := m.down
		m.down = false
		m.transitionLocked(Reachable)
		m.attempt = 0
		m.nextRetryAt = time.Time{}
		if m.bannerShown {
			m.showLocked("Connection Successful", BannerSuccess)
			m.hideTimer = m.sched.AfterFunc(confirmDelay, func() { m.hide(g) })
		}
		onRecover := m.onRecover
		m.mu.Unlock()

		m.log.Debug("translator service reachable", "url", url)
		if recovered && onRecover != nil {
			onRecover()
		}
		return
	}

	m.attempt++
	m.down = true
	m.transitionLocked(Unreachable)
	delay := Delay(m.attempt)
	m.nextRetryAt = m.sched.Now().Add(delay)
	m.retryTimer = m.sched.AfterFunc(delay, func() { m.retry(g) })
	m.refreshCountdownLocked(g)
	attempt := m.attempt
	m.mu.Unlock()

	m.log.Warn("translator service unreachable", "url", url, "attempt", attempt, "retry_in", delay, "error", err)
}

func (m *Monitor) retry(g int) {
	m.mu.Lock()
	if g != m.gen || m.state != Unreachable {
		m.mu.Unlock()
		return
	}
	m.stopTimersLocked()
	m.transitionLocked(Probing)
	m.mu.Unlock()

	m.probe(g)
}

// refreshCountdownLocked 每秒刷新一次剩余秒数
func (m *Monitor) refreshCountdownLocked(g int) {
	remaining := secondsUntil(m.nextRetryAt, m.sched.Now())
	m.showLocked(fmt.Sprintf("Could not connect to %s Service. Reconnecting in %ds", m.service, remaining), BannerError)
	if remaining <= 1 {
		return
	}
	m.tickTimer = m.sched.AfterFunc(time.Second, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if g != m.gen || m.state != Unreachable {
			return
		}
		m.refreshCountdownLocked(g)
	})
}

func (m *Monitor) hide(g int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g != m.gen || m.state != Reachable {
		return
	}
	m.bannerShown = false
	m.banner = ""
	m.surface.Hide()
}

func (m *Monitor) showLocked(msg string, kind BannerKind) {
	m.banner = msg
	m.bannerShown = true
	m.surface.Show(msg, kind)
}

func (m *Monitor) transitionLocked(to State) {
	if !canTransition(m.state, to) {
		m.log.Error("invalid connection state transition", "from", m.state.String(), "to", to.String())
		return
	}
	m.state = to
}

func (m *Monitor) stopTimersLocked() {
	for _, t := range []Timer{m.retryTimer, m.tickTimer, m.hideTimer} {
		if t != nil {
			t.Stop()
		}
	}
	m.retryTimer, m.tickTimer, m.hideTimer = nil, nil, nil
}

func secondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
