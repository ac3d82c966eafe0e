// Package ksef forwards created invoices to the national e-invoicing gateway
// (KSeF): FA(3) rendering, the gateway clients and the background dispatcher.
package ksef

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ErrUnavailable wraps transport failures talking to the gateway.
var ErrUnavailable = errors.New("ksef gateway unavailable")

// Submission is one invoice sent on behalf of a company.
type Submission struct {
	InvoiceNumber string
	SellerNIP     string
	Environment   string
	Token         string
	Document      []byte
}

// Result is the gateway's verdict on a submission.
type Result struct {
	Status          string `json:"status"`
	ReferenceNumber string `json:"reference_number"`
	UPO             string `json:"upo"`
	Message         string `json:"message"`
	Error           string `json:"error,omitempty"`
}

func (r Result) Accepted() bool {
	return r.Status == StatusAccepted
}

// Gateway submits structured invoices to KSeF.
type Gateway interface {
	Submit(ctx context.Context, sub Submission) (Result, error)
	Mode() string
}

// Options configures NewGateway.
type Options struct {
	Mode           string
	SandboxBaseURL string
	Timeout        time.Duration
}

// NewGateway returns the gateway selected by opts.Mode ("mock" or "sandbox").
func NewGateway(opts Options) (Gateway, error) {
	switch opts.Mode {
	case "", ModeMock:
		return NewMockGateway(0), nil
	case ModeSandbox:
		return NewSandboxGateway(opts.SandboxBaseURL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown ksef mode %q", opts.Mode)
	}
}
