// Package provider 实现各个翻译服务。对外只暴露 Translator：
// GetTranslations 要么返回全部结果，要么返回错误，不会把部分成功混在一起。
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Translator interface {
	Name() string
	// TestURL 用于连通性探测
	TestURL() string
	GetTranslations(ctx context.Context, tokens []string) (map[string]string, error)
}

type Options struct {
	Source string
	Target string
	APIKey string
	// Model 仅 Gemini 使用
	Model string
	// BaseURL 为空时使用服务的公开地址，测试时指向 httptest
	BaseURL    string
	HTTPClient *http.Client
}

const (
	NameFree     = "Free"
	NameGoogle   = "Google"
	NameMyMemory = "MyMemory"
	NameGemini   = "Gemini"
)

// Names 返回全部服务名，统计按此预置计数
func Names() []string {
	names := []string{NameFree, NameGoogle, NameMyMemory, NameGemini}
	sort.Strings(names)
	return names
}

// New 按名字构造翻译服务；Gemini 需要网络握手，因此带 ctx
func New(ctx context.Context, name string, opts Options) (Translator, error) {
	if strings.TrimSpace(opts.Target) == "" {
		return nil, fmt.Errorf("provider %s: target language is required", name)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "free":
		return NewFree(opts), nil
	case "google":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("provider google: api key is required")
		}
		return NewGoogle(opts), nil
	case "mymemory":
		return NewMyMemory(opts), nil
	case "gemini":
		return NewGemini(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// uniqueTokens 去重去空，保持顺序
func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// chunk 按条数与总字符数分批，避免 URL 过长
func chunk(tokens []string, maxItems, maxChars int) [][]string {
	var (
		out   [][]string
		cur   []string
		chars int
	)
	for _, t := range tokens {
		if len(cur) > 0 && (len(cur) >= maxItems || chars+len(t)+1 > maxChars) {
			out = append(out, cur)
			cur, chars = nil, 0
		}
		cur = append(cur, t)
		chars += len(t) + 1
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
