package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	geminiTestURL      = "https://generativelanguage.googleapis.com"
)

// Gemini 用大模型一次翻译一批词，要求返回 {"原词":"译词"} 的 JSON 对象
type Gemini struct {
	opts   Options
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("provider gemini: api key is required")
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(opts.Model)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(opts.Source, opts.Target))},
	}
	return &Gemini{opts: opts, client: client, model: model}, nil
}

func systemPrompt(source, target string) string {
	if source == "" || source == "auto" {
		source = "the detected language"
	}
	return fmt.Sprintf("Translate each word or short phrase from %s to %s for a vocabulary learner. "+
		"Reply with a single JSON object mapping every input string to its translation. "+
		"Use the most common meaning, keep it to a word or short phrase, and add no commentary.", source, target)
}

func (g *Gemini) Name() string { return NameGemini }

func (g *Gemini) TestURL() string { return geminiTestURL }

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) GetTranslations(ctx context.Context, tokens []string) (map[string]string, error) {
	tokens = uniqueTokens(tokens)
	out := make(map[string]string, len(tokens))
	for _, batch := range chunk(tokens, 200, 8000) {
		ctxBatch, cancel := context.WithTimeout(ctx, translateClientTimeout)
		got, err := g.translateBatch(ctxBatch, batch)
		cancel()
		if err != nil {
			return nil, err
		}
		for k, v := range got {
			out[k] = v
		}
	}
	return out, nil
}

func (g *Gemini) translateBatch(ctx context.Context, batch []string) (map[string]string, error) {
	input, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}
	resp, err := g.model.GenerateContent(ctx, genai.Text(string(input)))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, apperrors.FetchFailure("translate (gemini)", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		return nil, apperrors.FetchFailure("translate (gemini)", fmt.Errorf("decode: %w", err))
	}

	// 缺词视为整批失败，不返回部分结果
	out := make(map[string]string, len(batch))
	for _, t := range batch {
		v, ok := got[t]
		if !ok {
			return nil, apperrors.FetchFailure("translate (gemini)", fmt.Errorf("missing translation for %q", t))
		}
		out[t] = strings.TrimSpace(v)
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", errors.New("no text parts in response")
}

func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 429 || gerr.Code >= 500 {
			return apperrors.Transient("translate (gemini)", err)
		}
		return apperrors.FetchFailure("translate (gemini)", err)
	}
	return apperrors.Transient("translate (gemini)", err)
}
