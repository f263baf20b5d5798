package monitor

import (
	"sync"

	"github.com/LJTian/WordWeave/internal/logger"
)

type BannerKind int

const (
	BannerError BannerKind = iota
	BannerSuccess
)

// Surface 是状态提示的展示端
type Surface interface {
	Show(msg string, kind BannerKind)
	Hide()
}

type NopSurface struct{}

func (NopSurface) Show(string, BannerKind) {}
func (NopSurface) Hide()                   {}

// Board 保存当前提示，供 API 查询；同时写日志
type Board struct {
	mu      sync.RWMutex
	message string
	kind    BannerKind
	visible bool
}

func (b *Board) Show(msg string, kind BannerKind) {
	b.mu.Lock()
	changed := !b.visible || b.kind != kind
	b.message, b.kind, b.visible = msg, kind, true
	b.mu.Unlock()
	if changed {
		logger.Info("connection banner", "message", msg)
	}
}

func (b *Board) Hide() {
	b.mu.Lock()
	b.visible = false
	b.message = ""
	b.mu.Unlock()
}

// Current 返回当前提示；visible 为 false 时提示已收起
func (b *Board) Current() (msg string, kind BannerKind, visible bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.message, b.kind, b.visible
}
