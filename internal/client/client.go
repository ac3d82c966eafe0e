// Package client talks to the invoicedesk API on behalf of invoicectl. Client
// implements draft.Submitter so a SubmissionController can drive it directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"invoicedesk/internal/draft"
)

const DefaultTimeout = 30 * time.Second

// Company is an entry of GET /companies.
type Company struct {
	ID      string        `json:"id" yaml:"id"`
	Name    string        `json:"name" yaml:"name"`
	NIP     string        `json:"nip" yaml:"nip"`
	Address draft.Address `json:"address" yaml:"address"`
}

// Token is the result of a login.
type Token struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Detail string          `json:"detail"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateInvoice posts inv to /invoices. A non-2xx answer becomes a
// *draft.RejectionError carrying the server's detail; transport failures are
// returned wrapped.
func (c *Client) CreateInvoice(ctx context.Context, inv draft.Invoice) (draft.Created, error) {
	var created draft.Created
	if err := c.do(ctx, http.MethodPost, "/invoices", inv, &created); err != nil {
		return draft.Created{}, err
	}
	return created, nil
}

// Companies lists the companies the token's owner may invoice for.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := c.do(ctx, http.MethodGet, "/companies", nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	var tok Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &draft.RejectionError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			rej.Detail = env.Detail
		}
		return rej
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
