package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Backend-Attendance/src/models"

	"github.com/bytedance/sonic"
)

const scanPath = "/api/attendance/scan"

// HTTPSubmitter posts scans to the attendance API.
type HTTPSubmitter struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSubmitter(baseURL, token string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Submit returns the server's verdict. Transport failures, 5xx responses
// without a verdict and unreadable bodies come back as errors so the caller
// can treat them as retryable.
func (h *HTTPSubmitter) Submit(ctx context.Context, scan models.ScanRequest) (models.ScanResult, error) {
	b, err := sonic.Marshal(scan)
	if err != nil {
		return models.ScanResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+scanPath, bytes.NewReader(b))
	if err != nil {
		return models.ScanResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return models.ScanResult{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return models.ScanResult{}, err
	}

	var out models.ScanResult
	if err := sonic.Unmarshal(body, &out); err != nil || out.Code == "" {
		return models.ScanResult{}, fmt.Errorf("scan endpoint returned status %s without a result", res.Status)
	}
	return out, nil
}
