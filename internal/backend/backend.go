// Package backend talks to the Convex deployment that stores personas,
// trials, agent threads and agent state. Failures are logged and reported as
// nil, false or an empty map; nothing is returned as an error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every Convex request.
const DefaultTimeout = 30 * time.Second

// Client is a Convex HTTP client authenticated with a bearer key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a Client. A zero timeout uses DefaultTimeout.
func New(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("backend"),
	}
}

// Enabled reports whether a deployment URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// SaveThreads stores the conversation's thread data.
func (c *Client) SaveThreads(ctx context.Context, threads any, conversationID string) bool {
	_, err := c.do(ctx, http.MethodPost, "saveAgentThreads", map[string]any{
		"args": map[string]any{
			"conversationId": conversationID,
			"threadsData":    threads,
		},
	})
	return err == nil
}

// LoadThreads returns the conversation's thread data, or an empty map.
func (c *Client) LoadThreads(ctx context.Context, conversationID string) map[string]any {
	res, err := c.do(ctx, http.MethodPost, "getAgentThreads", map[string]any{
		"args": map[string]any{"conversationId": conversationID},
	})
	return field(res, err, "threadsData")
}

// SaveAgentState stores an agent's state within a conversation.
func (c *Client) SaveAgentState(ctx context.Context, agentID string, state any, conversationID string) bool {
	_, err := c.do(ctx, http.MethodPost, "saveAgentState", map[string]any{
		"args": map[string]any{
			"agentId":        agentID,
			"stateData":      state,
			"conversationId": conversationID,
		},
	})
	return err == nil
}

// LoadAgentState returns an agent's state, or an empty map.
func (c *Client) LoadAgentState(ctx context.Context, agentID, conversationID string) map[string]any {
	res, err := c.do(ctx, http.MethodPost, "getAgentState", map[string]any{
		"args": map[string]any{
			"agentId":        agentID,
			"conversationId": conversationID,
		},
	})
	return field(res, err, "stateData")
}

// PushPersona registers a persona. It returns the Convex response or nil.
func (c *Client) PushPersona(ctx context.Context, persona any) map[string]any {
	res, err := c.do(ctx, http.MethodPost, "functions/spawnPersona", persona)
	if err != nil {
		return nil
	}
	return res
}

// PushTrial registers a trial record. It returns the Convex response or nil.
func (c *Client) PushTrial(ctx context.Context, trial any) map[string]any {
	res, err := c.do(ctx, http.MethodPost, "functions/generateTrial", trial)
	if err != nil {
		return nil
	}
	return res
}

// FetchPersona returns the stored persona or nil.
func (c *Client) FetchPersona(ctx context.Context, id string) map[string]any {
	res, err := c.do(ctx, http.MethodGet, "functions/get/persona/"+url.PathEscape(id), nil)
	if err != nil {
		return nil
	}
	return res
}

// FetchTrial returns the stored trial or nil.
func (c *Client) FetchTrial(ctx context.Context, id string) map[string]any {
	res, err := c.do(ctx, http.MethodGet, "functions/get/trial/"+url.PathEscape(id), nil)
	if err != nil {
		return nil
	}
	return res
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (map[string]any, error) {
	if !c.Enabled() {
		c.logger.Warn("convex not configured", zap.String("endpoint", endpoint))
		return nil, fmt.Errorf("convex not configured")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("encode convex payload", zap.String("endpoint", endpoint), zap.Error(err))
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		c.logger.Error("create convex request", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("convex request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("read convex response", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("convex error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, fmt.Errorf("convex %s: status %d", endpoint, resp.StatusCode)
	}

	result := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			c.logger.Error("decode convex response", zap.String("endpoint", endpoint), zap.Error(err))
			return nil, err
		}
	}

	c.logger.Debug("convex request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// field extracts a nested object, falling back to an empty map.
func field(res map[string]any, err error, key string) map[string]any {
	if err != nil || res == nil {
		return map[string]any{}
	}
	if m, ok := res[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
