// Package commonwords 提供各语言的常用词表，用于预先翻译并缓存常用词。
// 找不到词表不是错误，调用方退回到只做在线翻译。
package commonwords

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

//go:embed data/*.json
var embedded embed.FS

type Source interface {
	Fetch(ctx context.Context, locale string) ([]string, error)
}

type list struct {
	Words []string `json:"words"`
}

// candidates 依次尝试完整语言代码与主语言，例如 en-US -> en
func candidates(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil
	}
	out := []string{locale}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		out = append(out, locale[:i])
	}
	return out
}

// Embedded 读取编译进二进制的词表
type Embedded struct {
	FS fs.FS
}

func NewEmbedded() *Embedded {
	sub, _ := fs.Sub(embedded, "data")
	return &Embedded{FS: sub}
}

func (e *Embedded) Fetch(_ context.Context, locale string) ([]string, error) {
	for _, name := range candidates(locale) {
		bs, err := fs.ReadFile(e.FS, name+".json")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return decode(bs)
	}
	return nil, nil
}

// HTTP 从 <BaseURL>/<locale>.json 拉取词表，404 视为没有词表
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{BaseURL: strings.TrimRight(baseURL, "/"), Client: &http.Client{Timeout: 10 * time.Second}}
}

func (h *HTTP) Fetch(ctx context.Context, locale string) ([]string, error) {
	for _, name := range candidates(locale) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/"+name+".json", nil)
		if err != nil {
			return nil, err
		}
		resp, err := h.Client.Do(req)
		if err != nil {
			return nil, err
		}
		bs, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusNotFound {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("common words %s: status %d", name, resp.StatusCode)
		}
		return decode(bs)
	}
	return nil, nil
}

// Chain 按顺序尝试多个来源，第一个返回非空词表的胜出
type Chain []Source

func (c Chain) Fetch(ctx context.Context, locale string) ([]string, error) {
	for _, s := range c {
		words, err := s.Fetch(ctx, locale)
		if err != nil {
			return nil, err
		}
		if len(words) > 0 {
			return words, nil
		}
	}
	return nil, nil
}

func decode(bs []byte) ([]string, error) {
	var l list
	if err := json.Unmarshal(bs, &l); err != nil {
		return nil, fmt.Errorf("decode common words: %w", err)
	}
	out := l.Words[:0]
	for _, w := range l.Words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out, nil
}
