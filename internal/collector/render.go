package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
)

const (
	renderTimeout          = 30 * time.Second
	renderMaxResponseBytes = 8 << 20
)

// RenderRequest 与渲染服务 POST /render 的请求体一致
type RenderRequest struct {
	URL     string `json:"url"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	ScrollY int    `json:"scrollY,omitempty"`
}

type RenderResponse struct {
	OK      bool   `json:"ok"`
	HTML    string `json:"html,omitempty"`
	Visible []int  `json:"visible,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RenderClient 调用无头浏览器渲染服务，拿到脚本执行后的 HTML 与可见区域
type RenderClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Width      int
	Height     int
}

func NewRenderClient(baseURL string) *RenderClient {
	return &RenderClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: renderTimeout},
		Width:      1280,
		Height:     800,
	}
}

func (r *RenderClient) Name() string {
	return "renderer"
}

func (r *RenderClient) Fetch(ctx context.Context, url string) (*Page, error) {
	return r.Render(ctx, RenderRequest{URL: url, Width: r.Width, Height: r.Height})
}

// Render 按给定窗口大小与滚动位置渲染页面
func (r *RenderClient) Render(ctx context.Context, in RenderRequest) (*Page, error) {
	if r.BaseURL == "" {
		return nil, apperrors.ConfigurationGap("collector.render", "renderer url is empty")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: renderTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.FetchFailure("collector.render", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, renderMaxResponseBytes))
	if err != nil {
		return nil, apperrors.FetchFailure("collector.render", err)
	}
	var out RenderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.FetchFailure("collector.render", fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}
	if !out.OK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, apperrors.FetchFailure("collector.render", errors.New(msg))
	}
	return &Page{URL: in.URL, HTML: out.HTML, Visible: out.Visible, FetchedAt: time.Now()}, nil
}
