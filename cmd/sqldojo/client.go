package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/backoff"
	"github.com/osvaldoandrade/sqldojo/internal/tracing"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"
)

var errRetryStatus = errors.New("server asked to retry")

type client struct {
	baseURL    string
	token      string
	adminToken string
	httpClient *http.Client
	retry      backoff.Policy
	rng        *rand.Rand
}

// apiError is a non-2xx response. Message carries the learner-facing text
// when the server sent one.
type apiError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("error (%d): %s", e.Status, e.Code)
	}
	return fmt.Sprintf("error (%d): %s", e.Status, strings.TrimSpace(e.Body))
}

func newClient(s *settings) *client {
	return &client{
		baseURL:    strings.TrimRight(s.baseURL, "/"),
		token:      strings.TrimSpace(s.token),
		adminToken: strings.TrimSpace(s.adminToken),
		httpClient: &http.Client{Timeout: s.timeout},
		retry:      s.retry,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// request sends one API call, retrying connection failures, 429 and 503 with
// the client's backoff policy. A retried status that never clears is returned
// as is.
func (c *client) request(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payload = b
	}

	var (
		status int
		out    []byte
	)
	err := backoff.Retry(ctx, c.retry, c.rng, func(int) error {
		s, b, hdr, err := c.do(ctx, method, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return backoff.Retryable(err, 0)
		}
		status, out = s, b
		if s == http.StatusTooManyRequests || s == http.StatusServiceUnavailable {
			return backoff.Retryable(errRetryStatus, retryAfter(hdr))
		}
		return nil
	})
	if errors.Is(err, errRetryStatus) {
		err = nil
	}
	return status, out, err
}

func (c *client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, http.Header, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.adminToken != "" {
		req.Header.Set("X-Admin-Token", c.adminToken)
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, out, resp.Header, nil
}

// getJSON decodes a 2xx body into out, or returns an *apiError.
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *client) call(ctx context.Context, method, path string, body any, out any) error {
	status, resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return decodeAPIError(status, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) *apiError {
	e := &apiError{Status: status, Body: string(body)}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Error
		e.Message = payload.Message
	}
	return e
}

func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func decodeOutcome(body []byte, out *domain.CheckOutcome) error {
	if err := json.Unmarshal(body, out); err != nil {
		return err
	}
	if out.Kind == "" {
		return errors.New("response is not a check outcome")
	}
	return nil
}

func decodeReport(body []byte, out *domain.SelfTestReport) error {
	if err := json.Unmarshal(body, out); err != nil {
		return err
	}
	if out.Results == nil {
		return errors.New("response is not a self-test report")
	}
	return nil
}
