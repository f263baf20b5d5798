package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
)

const probeTimeout = 10 * time.Second

// HTTPProber 默认只要拿到任何 HTTP 响应就算可达；StrictStatus 为 true 时 5xx 也算不可达
type HTTPProber struct {
	Client       *http.Client
	StrictStatus bool
}

func NewHTTPProber(strict bool) *HTTPProber {
	return &HTTPProber{Client: &http.Client{Timeout: probeTimeout}, StrictStatus: strict}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.New(apperrors.KindProbeFailure, "probe", "", err)
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.New(apperrors.KindProbeFailure, "probe", "", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if p.StrictStatus && resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.New(apperrors.KindProbeFailure, "probe", "", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
