package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/gocolly/colly/v2"
)

const (
	staticTimeout     = 15 * time.Second
	staticMaxBodySize = 4 << 20 // 4MB
	defaultUserAgent  = "WordWeaveBot/1.0"
)

var errNotHTML = errors.New("response is not html")

// StaticFetcher 直接抓取服务端返回的 HTML，不执行脚本
type StaticFetcher struct {
	UserAgent string
	Timeout   time.Duration
}

func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{UserAgent: defaultUserAgent, Timeout: staticTimeout}
}

func (s *StaticFetcher) Name() string {
	return "static"
}

func (s *StaticFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("fetch page", "url", url, "fetcher", s.Name())

	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.MaxBodySize(staticMaxBodySize),
	)
	c.SetRequestTimeout(s.timeout(ctx))

	var (
		page    *Page
		lastErr error
	)
	c.OnResponse(func(r *colly.Response) {
		ct := strings.ToLower(r.Headers.Get("Content-Type"))
		if ct != "" && !strings.Contains(ct, "html") {
			lastErr = errNotHTML
			return
		}
		page = &Page{
			URL:       r.Request.URL.String(),
			HTML:      string(r.Body),
			FetchedAt: time.Now(),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.Warn("fetch page failed", "url", url, "status", r.StatusCode, "error", err)
		lastErr = err
	})

	if err := c.Visit(url); err != nil && lastErr == nil {
		lastErr = err
	}
	if lastErr != nil {
		return nil, apperrors.FetchFailure("collector.static", lastErr)
	}
	if page == nil {
		return nil, apperrors.FetchFailure("collector.static", errors.New("empty response"))
	}
	return page, nil
}

// timeout 取配置超时与 ctx 截止时间中较短的一个
func (s *StaticFetcher) timeout(ctx context.Context) time.Duration {
	d := s.Timeout
	if d <= 0 {
		d = staticTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && left < d {
			d = left
		}
	}
	return d
}
