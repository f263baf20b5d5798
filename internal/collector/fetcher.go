package collector

import (
	"context"
	"time"
)

// Page 是抓取到的原始页面
type Page struct {
	URL       string
	HTML      string
	FetchedAt time.Time
	// Visible 为渲染器给出的可见区域下标（p/div/a 的文档顺序）；静态抓取时为空
	Visible []int
}

// Fetcher 抽象每一种页面来源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Page, error)
}
