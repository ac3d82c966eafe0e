package ksef

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const ModeMock = "mock"

// MockGateway accepts every invoice except those whose number contains
// "error", after an optional artificial latency.
type MockGateway struct {
	latency time.Duration
}

func NewMockGateway(latency time.Duration) *MockGateway {
	return &MockGateway{latency: latency}
}

func (g *MockGateway) Mode() string { return ModeMock }

func (g *MockGateway) Submit(ctx context.Context, sub Submission) (Result, error) {
	if g.latency > 0 {
		select {
		case <-time.After(g.latency):
		case <-ctx.Done():
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}

	env := strings.ToUpper(sub.Environment)
	if env == "" {
		env = "TEST"
	}

	if strings.Contains(strings.ToLower(sub.InvoiceNumber), "error") {
		return Result{
			Status:  StatusRejected,
			Message: "invoice rejected by KSeF",
			Error:   "FA(3) validation failed",
		}, nil
	}

	return Result{
		Status:          StatusAccepted,
		ReferenceNumber: fmt.Sprintf("%s-%s-%s", sub.SellerNIP, time.Now().UTC().Format("20060102"), env),
		UPO:             fmt.Sprintf("UPO-%s-%s-001", env, sub.InvoiceNumber),
		Message:         "invoice accepted by KSeF",
	}, nil
}
