package client

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

	"github.com/HammerMeetNail/conversando/internal/models"
)

// ErrUnexpectedStatus is returned when the API answers with a status and a
// body the client cannot interpret.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// ErrBodyTooLarge is returned when a response body exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

const maxBodyBytes = 1 << 20

// Client talks to the Conversando API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateCode posts code to the validator. The API uses the same body shape
// for 200, 400 and 500, so any status with a decodable body yields a result.
func (c *Client) ValidateCode(ctx context.Context, code string) (models.ValidationResult, error) {
	payload, err := json.Marshal(models.CodeValidationRequest{Code: code})
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/validate-code", bytes.NewReader(payload))
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return models.ValidationResult{}, err
	}

	var result models.ValidationResult
	if err := json.Unmarshal(body, &result); err != nil {
		if status >= 300 {
			return models.ValidationResult{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
		}
		return models.ValidationResult{}, fmt.Errorf("decoding validation response: %w", err)
	}
	if status >= 300 && result.Valid {
		return models.ValidationResult{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
	return result, nil
}

// ListQuestions fetches the question list. A body that is neither an array of
// questions nor an object with a "questions" array gives an empty list rather
// than an error.
func (c *Client) ListQuestions(ctx context.Context) ([]models.ReflectionQuestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/questions", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, status, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
	return decodeQuestions(body), nil
}

func decodeQuestions(body []byte) []models.ReflectionQuestion {
	var list []models.ReflectionQuestion
	if err := json.Unmarshal(body, &list); err == nil && list != nil {
		return list
	}

	var wrapped struct {
		Questions []models.ReflectionQuestion `json:"questions"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Questions != nil {
		return wrapped.Questions
	}
	return []models.ReflectionQuestion{}
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrBodyTooLarge)
	}
	return body, resp.StatusCode, nil
}
