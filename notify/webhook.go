// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookClient defines the interface for making webhook HTTP calls
type WebhookClient interface {
	POST(ctx context.Context, url string, form url.Values) (status int, body []byte, headers http.Header, err error)
}

// DefaultWebhookClient is the default implementation using resty
type DefaultWebhookClient struct {
	client *resty.Client
}

// NewDefaultWebhookClient creates a new default webhook client
func NewDefaultWebhookClient(timeout time.Duration) *DefaultWebhookClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Switchboard/1.0")
	return &DefaultWebhookClient{client: client}
}

// POST makes an HTTP POST request with form data
func (c *DefaultWebhookClient) POST(ctx context.Context, targetURL string, form url.Values) (status int, body []byte, headers http.Header, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(targetURL)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp.StatusCode(), resp.Body(), resp.Header(), nil
}

// MockWebhookClient is a test double for capturing webhook calls
type MockWebhookClient struct {
	mu    sync.Mutex
	Calls []MockCall
	// ResponseFunc allows tests to control responses
	ResponseFunc func(url string, form url.Values) (status int, body []byte, headers http.Header, err error)
}

// MockCall records a webhook call
type MockCall struct {
	URL     string
	Form    url.Values
	Time    time.Time
	Context context.Context
}

// NewMockWebhookClient creates a new mock client
func NewMockWebhookClient() *MockWebhookClient {
	return &MockWebhookClient{
		Calls: make([]MockCall, 0),
		ResponseFunc: func(url string, form url.Values) (int, []byte, http.Header, error) {
			return http.StatusNoContent, nil, make(http.Header), nil
		},
	}
}

// POST records the call and returns the configured response
func (m *MockWebhookClient) POST(ctx context.Context, targetURL string, form url.Values) (status int, body []byte, headers http.Header, err error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{
		URL:     targetURL,
		Form:    form,
		Time:    time.Now(),
		Context: ctx,
	})
	respond := m.ResponseFunc
	m.mu.Unlock()

	if respond != nil {
		return respond(targetURL, form)
	}

	return http.StatusNoContent, nil, make(http.Header), nil
}

// Reset clears all recorded calls
func (m *MockWebhookClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// GetCallsTo returns all calls to a specific URL
func (m *MockWebhookClient) GetCallsTo(url string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.URL == url {
			result = append(result, call)
		}
	}
	return result
}
