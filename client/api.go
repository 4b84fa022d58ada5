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

	"github.com/andrewpaige1/problempad/models"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080"
	DefaultTimeout = 10 * time.Second

	problemsPath = "/api/problems"
	countPath    = "/api/problems/count"
)

// ProblemAPI is the problem service as seen by the controller.
type ProblemAPI interface {
	ListProblems(ctx context.Context) ([]models.Problem, error)
	CountProblems(ctx context.Context) (int64, error)
	CreateProblem(ctx context.Context, draft Draft) (models.Problem, error)
	UpdateCode(ctx context.Context, id int64, code string) (models.Problem, error)
	DeleteProblem(ctx context.Context, id int64) (models.Problem, error)
}

// Draft is a problem being typed in before it is created.
type Draft struct {
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Solved     bool   `json:"solved"`
	Code       string `json:"code,omitempty"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// ProblemClient talks JSON to the problem API over HTTP.
type ProblemClient struct {
	baseURL string
	http    *http.Client
}

func NewProblemClient(baseURL string, timeout time.Duration) *ProblemClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProblemClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *ProblemClient) BaseURL() string {
	return c.baseURL
}

func (c *ProblemClient) ListProblems(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	if err := c.do(ctx, http.MethodGet, problemsPath, nil, &problems); err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return problems, nil
}

func (c *ProblemClient) CountProblems(ctx context.Context) (int64, error) {
	var resp models.CountResponse
	if err := c.do(ctx, http.MethodGet, countPath, nil, &resp); err != nil {
		return 0, fmt.Errorf("count problems: %w", err)
	}
	return resp.Count, nil
}

func (c *ProblemClient) CreateProblem(ctx context.Context, draft Draft) (models.Problem, error) {
	var problem models.Problem
	if err := c.do(ctx, http.MethodPost, problemsPath, draft, &problem); err != nil {
		return models.Problem{}, fmt.Errorf("create problem: %w", err)
	}
	return problem, nil
}

func (c *ProblemClient) UpdateCode(ctx context.Context, id int64, code string) (models.Problem, error) {
	body := struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
	}{ID: id, Code: code}

	var problem models.Problem
	if err := c.do(ctx, http.MethodPut, problemsPath, body, &problem); err != nil {
		return models.Problem{}, fmt.Errorf("update problem %d: %w", id, err)
	}
	return problem, nil
}

func (c *ProblemClient) DeleteProblem(ctx context.Context, id int64) (models.Problem, error) {
	body := struct {
		ID int64 `json:"id"`
	}{ID: id}

	var resp models.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, problemsPath, body, &resp); err != nil {
		return models.Problem{}, fmt.Errorf("delete problem %d: %w", id, err)
	}
	return resp.Problem, nil
}

func (c *ProblemClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp models.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			statusErr.Message = errResp.Error
		} else {
			statusErr.Message = strings.TrimSpace(string(data))
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
