package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
)

type HTTPGenerator struct {
	url        string
	apiKey     string
	maxBytes   int64
	httpClient *http.Client
}

func NewHTTPGenerator(cfg *config.Config) *HTTPGenerator {
	timeoutSeconds := cfg.GeneratorTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	maxMB := cfg.GeneratorMaxResponseMB
	if maxMB <= 0 {
		maxMB = 5
	}

	return &HTTPGenerator{
		url:      cfg.GeneratorURL,
		apiKey:   cfg.GeneratorAPIKey,
		maxBytes: int64(maxMB) << 20,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("generator request failed: %w", err)
	}
	defer resp.Body.Close()

	// One extra byte tells an oversized body apart from one that fits exactly.
	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("read generator response: %w", err)
	}
	if int64(len(responseBody)) > g.maxBytes {
		return nil, fmt.Errorf("generator response exceeds %d bytes", g.maxBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator request failed with status %d", resp.StatusCode)
	}

	return responseBody, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
