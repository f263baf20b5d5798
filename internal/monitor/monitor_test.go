package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler 只在 Advance 时触发到期回调
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{due: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.due.After(target) {
				continue
			}
			if next == nil || t.due.Before(next.due) {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.due
		s.mu.Unlock()
		next.f()
	}
}

type scriptedProber struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (p *scriptedProber) Probe(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		return p.results[len(p.results)-1]
	}
	return p.results[i]
}

var errNoResponse = errors.New("no response")

func TestDelayGrowth(t *testing.T) {
	want := []time.Duration{time.Second, 3 * time.Second, 7 * time.Second, 15 * time.Second, 31 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, Delay(i+1))
	}
	prev := time.Duration(0)
	for k := 1; k <= 33; k++ {
		require.Greater(t, Delay(k), prev)
		prev = Delay(k)
	}
	assert.Greater(t, Delay(80), Delay(33))
	assert.Equal(t, time.Duration(0), Delay(0))
}

func TestUnreachableBackoff(t *testing.T) {
	sched := newFakeScheduler()
	board := &Board{}
	m := New(&scriptedProber{results: []error{errNoResponse}}, WithScheduler(sched), WithSurface(board))

	require.Equal(t, Unknown, m.State())
	m.Start(context.Background(), "https://translate.example/test")

	st := m.Snapshot()
	assert.Equal(t, "unreachable", st.State)
	assert.Equal(t, 1, st.Attempt)
	assert.Equal(t, 1, st.RetryIn)
	msg, kind, visible := board.Current()
	assert.True(t, visible)
	assert.Equal(t, BannerError, kind)
	assert.Contains(t, msg, "Reconnecting in 1s")

	sched.Advance(time.Second)
	st = m.Snapshot()
	assert.Equal(t, 2, st.Attempt)
	assert.Equal(t, 3, st.RetryIn)
	msg, _, _ = board.Current()
	assert.Contains(t, msg, "Reconnecting in 3s")

	// 倒计时每秒刷新
	sched.Advance(time.Second)
	msg, _, _ = board.Current()
	assert.Contains(t, msg, "Reconnecting in 2s")

	sched.Advance(2 * time.Second)
	st = m.Snapshot()
	assert.Equal(t, 3, st.Attempt)
	assert.Equal(t, 7, st.RetryIn)
}

func TestStartDoesNotResetPendingBackoff(t *testing.T) {
	sched := newFakeScheduler()
	p := &scriptedProber{results: []error{errNoResponse}}
	m := New(p, WithScheduler(sched))

	m.Start(context.Background(), "u")
	sched.Advance(time.Second)
	require.Equal(t, 2, m.Snapshot().Attempt)

	m.Start(context.Background(), "u")
	assert.Equal(t, 2, m.Snapshot().Attempt)
	assert.Equal(t, 2, p.calls)
}

func TestRecoveryHidesBannerAndResumes(t *testing.T) {
	sched := newFakeScheduler()
	board := &Board{}
	recovered := 0
	m := New(&scriptedProber{results: []error{errNoResponse, nil}},
		WithScheduler(sched), WithSurface(board), OnRecover(func() { recovered++ }))

	m.Start(context.Background(), "u")
	require.Equal(t, Unreachable, m.State())

	sched.Advance(time.Second)
	assert.Equal(t, Reachable, m.State())
	assert.Equal(t, 0, m.Snapshot().Attempt)
	assert.Equal(t, 1, recovered)
	msg, kind, visible := board.Current()
	assert.True(t, visible)
	assert.Equal(t, BannerSuccess, kind)
	assert.Equal(t, "Connection Successful", msg)

	sched.Advance(confirmDelay)
	_, _, visible = board.Current()
	assert.False(t, visible)
	assert.Empty(t, m.Snapshot().Banner)
}

func TestRetryNowResetsAttempt(t *testing.T) {
	sched := newFakeScheduler()
	p := &scriptedProber{results: []error{errNoResponse}}
	m := New(p, WithScheduler(sched))

	m.Start(context.Background(), "u")
	sched.Advance(time.Second)
	sched.Advance(3 * time.Second)
	require.Equal(t, 3, m.Snapshot().Attempt)

	m.RetryNow(context.Background())
	st := m.Snapshot()
	assert.Equal(t, 1, st.Attempt)
	assert.Equal(t, 1, st.RetryIn)

	// 旧的 7s 定时器已经失效，1s 后按新节奏重试
	sched.Advance(time.Second)
	assert.Equal(t, 2, m.Snapshot().Attempt)
	assert.Equal(t, 5, p.calls)
}

func TestSuccessFirstTryShowsNothing(t *testing.T) {
	board := &Board{}
	recovered := false
	m := New(&scriptedProber{results: []error{nil}}, WithScheduler(newFakeScheduler()), WithSurface(board),
		OnRecover(func() { recovered = true }))
	m.Start(context.Background(), "u")
	assert.Equal(t, Reachable, m.State())
	_, _, visible := board.Current()
	assert.False(t, visible)
	assert.False(t, recovered)
}

func TestHTTPProberPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.NoError(t, NewHTTPProber(false).Probe(context.Background(), srv.URL))
	assert.Error(t, NewHTTPProber(true).Probe(context.Background(), srv.URL))

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	assert.Error(t, NewHTTPProber(false).Probe(context.Background(), url))
}
