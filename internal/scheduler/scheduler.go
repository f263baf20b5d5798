package scheduler

import (
	"context"
	"time"

	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/robfig/cron/v3"
)

// Sweeper 回收空闲会话
type Sweeper interface {
	Sweep(now time.Time) int
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	kv      storage.KV
	now     func() time.Time
}

// New 注册两个任务：按 sweepSpec 回收空闲会话，按 commonWordsSpec 让常用词缓存失效。
// spec 为空时跳过对应任务。
func New(sweepSpec, commonWordsSpec string, sweeper Sweeper, kv storage.KV) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		kv:      kv,
		now:     time.Now,
	}

	if sweepSpec != "" && sweeper != nil {
		if _, err := c.AddFunc(sweepSpec, s.sweepOnce); err != nil {
			return nil, err
		}
	}
	if commonWordsSpec != "" && kv != nil {
		if _, err := c.AddFunc(commonWordsSpec, s.refreshCommonWords); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 启动后稍等再做首次回收，避免与启动时的请求争抢
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.sweepOnce()
	})
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Cron 暴露底层 cron，便于追加任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 手动执行一轮全部任务
func (s *Scheduler) RunOnce() {
	s.sweepOnce()
	s.refreshCommonWords()
}

func (s *Scheduler) sweepOnce() {
	if s.sweeper == nil {
		return
	}
	n := s.sweeper.Sweep(s.now())
	logger.Debug("session sweep done", "evicted", n)
}

// refreshCommonWords 只清除可用标记，下一次会话运行时重新翻译词表
func (s *Scheduler) refreshCommonWords() {
	if s.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.kv.Set(ctx, settings.KeyCWAvailable, "false"); err != nil {
		logger.Warn("invalidate common word cache failed", "error", err)
		return
	}
	logger.Info("common word cache invalidated")
}
