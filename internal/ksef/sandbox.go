package ksef

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ModeSandbox = "sandbox"

// SandboxGateway posts FA(3) documents to a KSeF-compatible HTTP endpoint.
type SandboxGateway struct {
	baseURL string
	client  *http.Client
}

func NewSandboxGateway(baseURL string, timeout time.Duration) *SandboxGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SandboxGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *SandboxGateway) Mode() string { return ModeSandbox }

type sandboxResponse struct {
	ReferenceNumber string `json:"referenceNumber"`
	Status          string `json:"status"`
	UPO             string `json:"upo"`
	Message         string `json:"message"`
	Error           string `json:"error"`
}

func (g *SandboxGateway) Submit(ctx context.Context, sub Submission) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/online/Invoice/Send", bytes.NewReader(sub.Document))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build ksef request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/json")
	if sub.Token != "" {
		req.Header.Set("SessionToken", sub.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed sandboxResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return Result{}, fmt.Errorf("failed to decode ksef response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest || strings.EqualFold(parsed.Status, StatusRejected) {
		msg := parsed.Error
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return Result{
			Status:          StatusRejected,
			ReferenceNumber: parsed.ReferenceNumber,
			Message:         parsed.Message,
			Error:           msg,
		}, nil
	}

	return Result{
		Status:          StatusAccepted,
		ReferenceNumber: parsed.ReferenceNumber,
		UPO:             parsed.UPO,
		Message:         parsed.Message,
	}, nil
}
