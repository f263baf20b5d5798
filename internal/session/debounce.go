package session

import (
	"sync"
	"time"
)

// ScrollQuietPeriod 是滚动触发的静默期
const ScrollQuietPeriod = 250 * time.Millisecond

// Debouncer 在静默期内只保留最后一次触发
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	seq    int
	closed bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger 重新计时；到期时执行最后一次传入的 f
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := d.closed || seq != d.seq
		d.mu.Unlock()
		if stale {
			return
		}
		f()
	})
}

// Stop 取消待执行的回调，之后的 Trigger 不再生效
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
