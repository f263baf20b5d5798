package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/LJTian/WordWeave/internal/apperrors"
)

const freeBaseURL = "https://translate.googleapis.com"

// Free 使用 Google Translate 公开接口（client=gtx，无需密钥）。
// 一批词按行拼成一次请求，响应按行拆回。
type Free struct {
	opts   Options
	client *http.Client
}

func NewFree(opts Options) *Free {
	if opts.BaseURL == "" {
		opts.BaseURL = freeBaseURL
	}
	if opts.Source == "" {
		opts.Source = "auto"
	}
	return &Free{opts: opts, client: defaultClient(opts.HTTPClient)}
}

func (f *Free) Name() string { return NameFree }

func (f *Free) TestURL() string { return f.opts.BaseURL + "/translate_a/single?client=gtx&dt=t&sl=en&tl=fr&q=hello" }

func (f *Free) GetTranslations(ctx context.Context, tokens []string) (map[string]string, error) {
	tokens = uniqueTokens(tokens)
	out := make(map[string]string, len(tokens))
	for _, batch := range chunk(tokens, 100, 1800) {
		lines, err := f.translateLines(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, t := range batch {
			out[t] = lines[i]
		}
	}
	return out, nil
}

func (f *Free) translateLines(ctx context.Context, batch []string) ([]string, error) {
	apiURL := fmt.Sprintf("%s/translate_a/single?client=gtx&sl=%s&tl=%s&dt=t&q=%s",
		f.opts.BaseURL,
		url.QueryEscape(f.opts.Source),
		url.QueryEscape(f.opts.Target),
		url.QueryEscape(strings.Join(batch, "\n")),
	)
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, apperrors.FetchFailure("translate (google-gtx)", err)
	}

	body, err := doAndRead(ctx, f.client, req, "translate (google-gtx)")
	if err != nil {
		return nil, err
	}

	joined, err := parseGtx(body)
	if err != nil {
		return nil, apperrors.FetchFailure("translate (google-gtx)", err)
	}
	lines := strings.Split(strings.TrimRight(joined, "\n"), "\n")
	if len(lines) != len(batch) {
		return nil, apperrors.FetchFailure("translate (google-gtx)",
			fmt.Errorf("got %d lines for %d tokens", len(lines), len(batch)))
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines, nil
}

// parseGtx 响应格式: [[["翻译文本","原文",...],...],...]
func parseGtx(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}
	outer, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var result strings.Builder
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			result.WriteString(s)
		}
	}
	return result.String(), nil
}
