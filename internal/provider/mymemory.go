package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"golang.org/x/sync/errgroup"
)

const (
	myMemoryBaseURL = "https://api.mymemory.translated.net"
	// 单词逐个请求，限制并发避免被限流
	myMemoryConcurrency = 4
)

type MyMemory struct {
	opts   Options
	client *http.Client
}

func NewMyMemory(opts Options) *MyMemory {
	if opts.BaseURL == "" {
		opts.BaseURL = myMemoryBaseURL
	}
	if opts.Source == "" || opts.Source == "auto" {
		opts.Source = "en"
	}
	return &MyMemory{opts: opts, client: defaultClient(opts.HTTPClient)}
}

func (m *MyMemory) Name() string { return NameMyMemory }

func (m *MyMemory) TestURL() string { return m.opts.BaseURL + "/get?langpair=en|fr&q=hello" }

func (m *MyMemory) GetTranslations(ctx context.Context, tokens []string) (map[string]string, error) {
	tokens = uniqueTokens(tokens)

	var (
		mu  sync.Mutex
		out = make(map[string]string, len(tokens))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(myMemoryConcurrency)
	for _, token := range tokens {
		token := token
		g.Go(func() error {
			t, err := m.translateOne(gctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			out[token] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MyMemory) translateOne(ctx context.Context, text string) (string, error) {
	apiURL := fmt.Sprintf("%s/get?langpair=%s|%s&q=%s",
		m.opts.BaseURL,
		url.QueryEscape(m.opts.Source),
		url.QueryEscape(m.opts.Target),
		url.QueryEscape(text),
	)
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return "", apperrors.FetchFailure("translate (mymemory)", err)
	}
	body, err := doAndRead(ctx, m.client, req, "translate (mymemory)")
	if err != nil {
		return "", err
	}

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus any `json:"responseStatus"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.FetchFailure("translate (mymemory)", fmt.Errorf("decode: %w", err))
	}
	// 配额用尽等情况 HTTP 仍是 200，状态码放在 responseStatus 里
	if code := statusCode(out.ResponseStatus); code != 0 && code != http.StatusOK {
		return "", apperrors.FetchFailure("translate (mymemory)", fmt.Errorf("response status %d", code))
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}

func statusCode(v any) int {
	switch s := v.(type) {
	case float64:
		return int(s)
	case string:
		n, _ := strconv.Atoi(s)
		return n
	}
	return 0
}
