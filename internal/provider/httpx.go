package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
)

const (
	translateMaxResponseBytes = 256 * 1024
	translateClientTimeout    = 20 * time.Second
)

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: translateClientTimeout}
}

// doAndRead 发送请求并读取有限长度的响应体；非 200 一律视为失败。
// 429 与 5xx 标记为可重试。
func doAndRead(ctx context.Context, client *http.Client, req *http.Request, op string) ([]byte, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "Mozilla/5.0")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Transient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, translateMaxResponseBytes+1))
	if err != nil {
		return nil, apperrors.Transient(op, err)
	}
	if len(body) > translateMaxResponseBytes {
		return nil, apperrors.FetchFailure(op, fmt.Errorf("response exceeds %d bytes", translateMaxResponseBytes))
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apperrors.Transient(op, statusErr)
		}
		return nil, apperrors.FetchFailure(op, statusErr)
	}
	return body, nil
}
