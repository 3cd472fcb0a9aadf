// Package commerce talks to the Coinbase Commerce charges API.
package commerce

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
)

const (
	APIVersion   = "2018-03-22"
	PricingFixed = "fixed_price"
)

var ErrMissingAPIKey = errors.New("commerce: api key not configured")

// UpstreamError carries a non-2xx answer from the provider as-is.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return e.Body
}

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// ChargeRequest is the body of POST /charges.
type ChargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  Money             `json:"local_price"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Charge struct {
	ID        string `json:"id"`
	Code      string `json:"code,omitempty"`
	HostedURL string `json:"hosted_url"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateCharge marshals req and submits it.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Charge{}, err
	}
	return c.CreateChargeRaw(ctx, body)
}

// CreateChargeRaw forwards an already encoded charge body.
func (c *Client) CreateChargeRaw(ctx context.Context, body []byte) (Charge, error) {
	if c.apiKey == "" {
		return Charge{}, ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return Charge{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CC-Api-Key", c.apiKey)
	req.Header.Set("X-CC-Version", APIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return Charge{}, fmt.Errorf("create charge: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Charge{}, fmt.Errorf("read charge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Charge{}, &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out struct {
		Data Charge `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Charge{}, fmt.Errorf("decode charge response: %w", err)
	}
	if out.Data.ID == "" {
		return Charge{}, errors.New("charge response has no id")
	}
	return out.Data, nil
}
