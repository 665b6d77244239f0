// Package api is the gateway to the remote GraphQL store. Every operation is
// an opaque typed call; the selection text lives here and nowhere else.
package api

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

// Gateway talks to a single GraphQL endpoint.
type Gateway struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a gateway with sane defaults.
func New(endpoint, token string) *Gateway {
	return &Gateway{
		Endpoint: endpoint,
		Token:    token,
		Timeout:  10 * time.Second,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ResponseErrors is the application-level error list returned alongside data.
type ResponseErrors struct {
	Messages []string
}

func (e *ResponseErrors) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

type operation struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts one operation and decodes the data payload into out (out may be
// nil when only the acknowledgment matters).
func (g *Gateway) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(operation{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode operation: %w", err)
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, len(env.Errors))
		for i, e := range env.Errors {
			msgs[i] = e.Message
		}
		return &ResponseErrors{Messages: msgs}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// mutate posts a mutation and discards the acknowledgment payload; it only
// reports whether the store accepted the change.
func (g *Gateway) mutate(ctx context.Context, query string, variables map[string]any) error {
	return g.do(ctx, query, variables, nil)
}
