// Package backend is the REST client of the platform backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/internal/auth"
	"github.com/lshigami/quizsync/internal/dto"
)

// Client is the part of the backend API the agent uses. Mutations carry an
// idempotency key so a replayed call is not applied twice.
type Client interface {
	StartAttempt(ctx context.Context, req dto.StartAttemptRequest, idempotencyKey string) (*dto.StartAttemptResponse, error)
	SubmitAnswer(ctx context.Context, req dto.SubmitAnswerRequest, idempotencyKey string) error
	CompleteAttempt(ctx context.Context, req dto.CompleteAttemptRequest, idempotencyKey string) (*dto.CompleteAttemptResponse, error)
	RecordProgress(ctx context.Context, req dto.UserProgressRequest, idempotencyKey string) (*dto.UserProgressResponse, error)
	GetAttempt(ctx context.Context, attemptID int64) (*dto.AttemptStateResponse, error)
	GetQuiz(ctx context.Context, quizID uint) (*dto.BackendQuiz, error)
	Ping(ctx context.Context) error
}

type httpClient struct {
	baseURL string
	tokens  auth.TokenSource
	client  *http.Client
}

func NewClient(cfg *config.Config, tokens auth.TokenSource) Client {
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends one JSON request and decodes a 2xx answer into out (when non-nil).
func (c *httpClient) do(ctx context.Context, method, path string, in, out interface{}, idempotencyKey string, authenticated bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if authenticated {
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody}
		var msg struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &msg) == nil {
			apiErr.Message = msg.Error
			if apiErr.Message == "" {
				apiErr.Message = msg.Message
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *httpClient) StartAttempt(ctx context.Context, req dto.StartAttemptRequest, idempotencyKey string) (*dto.StartAttemptResponse, error) {
	var resp dto.StartAttemptResponse
	if err := c.do(ctx, http.MethodPost, "/quiz-attempts/start", req, &resp, idempotencyKey, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) SubmitAnswer(ctx context.Context, req dto.SubmitAnswerRequest, idempotencyKey string) error {
	return c.do(ctx, http.MethodPost, "/quiz-attempts/submit-answer", req, nil, idempotencyKey, true)
}

func (c *httpClient) CompleteAttempt(ctx context.Context, req dto.CompleteAttemptRequest, idempotencyKey string) (*dto.CompleteAttemptResponse, error) {
	var resp dto.CompleteAttemptResponse
	if err := c.do(ctx, http.MethodPost, "/quiz-attempts/complete", req, &resp, idempotencyKey, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) RecordProgress(ctx context.Context, req dto.UserProgressRequest, idempotencyKey string) (*dto.UserProgressResponse, error) {
	var resp dto.UserProgressResponse
	if err := c.do(ctx, http.MethodPatch, "/user-progress", req, &resp, idempotencyKey, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) GetAttempt(ctx context.Context, attemptID int64) (*dto.AttemptStateResponse, error) {
	var resp dto.AttemptStateResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/quiz-attempts/%d", attemptID), nil, &resp, "", true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) GetQuiz(ctx context.Context, quizID uint) (*dto.BackendQuiz, error) {
	var resp dto.BackendQuiz
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/quizzes/%d", quizID), nil, &resp, "", true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, "", false)
}
