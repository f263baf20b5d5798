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

const googleBaseURL = "https://translation.googleapis.com"

// Google 使用 Cloud Translation v2 REST 接口，需要 API key
type Google struct {
	opts   Options
	client *http.Client
}

func NewGoogle(opts Options) *Google {
	if opts.BaseURL == "" {
		opts.BaseURL = googleBaseURL
	}
	return &Google{opts: opts, client: defaultClient(opts.HTTPClient)}
}

func (g *Google) Name() string { return NameGoogle }

func (g *Google) TestURL() string { return g.opts.BaseURL + "/language/translate/v2/languages" }

func (g *Google) GetTranslations(ctx context.Context, tokens []string) (map[string]string, error) {
	tokens = uniqueTokens(tokens)
	out := make(map[string]string, len(tokens))
	// v2 单次最多 128 段
	for _, batch := range chunk(tokens, 128, 20000) {
		translated, err := g.translateBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, t := range batch {
			out[t] = translated[i]
		}
	}
	return out, nil
}

func (g *Google) translateBatch(ctx context.Context, batch []string) ([]string, error) {
	form := url.Values{}
	form.Set("key", g.opts.APIKey)
	form.Set("target", g.opts.Target)
	form.Set("format", "text")
	if g.opts.Source != "" && g.opts.Source != "auto" {
		form.Set("source", g.opts.Source)
	}
	for _, t := range batch {
		form.Add("q", t)
	}

	req, err := http.NewRequest(http.MethodPost, g.opts.BaseURL+"/language/translate/v2", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.FetchFailure("translate (google-v2)", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := doAndRead(ctx, g.client, req, "translate (google-v2)")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.FetchFailure("translate (google-v2)", fmt.Errorf("decode: %w", err))
	}
	if len(resp.Data.Translations) != len(batch) {
		return nil, apperrors.FetchFailure("translate (google-v2)",
			fmt.Errorf("got %d translations for %d tokens", len(resp.Data.Translations), len(batch)))
	}

	out := make([]string, len(batch))
	for i, tr := range resp.Data.Translations {
		out[i] = strings.TrimSpace(tr.TranslatedText)
	}
	return out, nil
}
