// Package cleaner relays session credentials to the remote repost cleaning
// service.
package cleaner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/logging"
)

// HeaderRequestID carries the per-call correlation id.
const HeaderRequestID = "X-Request-ID"

const maxResponseBytes = 1 << 20

// ErrInvalidSessionID is returned for credentials outside the accepted shape.
var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-%=.~@]+$`)

// NormalizeSessionID trims raw and checks it only contains characters a
// session cookie value can carry. It does not verify the credential itself.
func NormalizeSessionID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !sessionIDPattern.MatchString(trimmed) {
		return "", ErrInvalidSessionID
	}

	return trimmed, nil
}

// Result mirrors the cleaner's JSON response. Deleted accepts any JSON number
// or numeric string.
type Result struct {
	Success bool        `json:"success"`
	Deleted json.Number `json:"deleted"`
	Message string      `json:"message"`
}

// DeletedCount renders Deleted as the cleaner sent it, or "0" when absent.
func (r Result) DeletedCount() string {
	if r.Deleted == "" {
		return "0"
	}
	return r.Deleted.String()
}

type request struct {
	SessionID string `json:"sessionid"`
}

// Client posts credentials to a fixed cleaner endpoint. It never retries.
type Client struct {
	endpoint     string
	httpClient   *http.Client
	logger       *logrus.Entry
	newRequestID func() string
}

// NewClient builds a Client for endpoint. A nil httpClient uses a default
// client without a timeout; cancellation comes from the request context.
func NewClient(endpoint string, httpClient *http.Client, logger *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Client{
		endpoint:     endpoint,
		httpClient:   httpClient,
		logger:       logger,
		newRequestID: uuid.NewString,
	}
}

// Clean validates sessionID and issues exactly one POST to the cleaner. Any
// transport or decoding failure is returned as an error; a cleaner-reported
// failure comes back as a Result with Success=false.
func (c *Client) Clean(ctx context.Context, sessionID string) (Result, error) {
	if c == nil || c.httpClient == nil {
		return Result{}, errors.New("cleaner client is not initialized")
	}
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}

	normalized, err := NormalizeSessionID(sessionID)
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(request{SessionID: normalized})
	if err != nil {
		return Result{}, fmt.Errorf("encode cleaner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build cleaner request: %w", err)
	}

	requestID := c.newRequestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	logger := c.logger.WithFields(logging.Fields{
		"event":      "cleaner_request",
		"request_id": requestID,
	})

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call cleaner (request %s): %w", requestID, err)
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode cleaner response (request %s, status %d): %w", requestID, resp.StatusCode, err)
	}

	logger.WithFields(logging.Fields{
		"status":      resp.StatusCode,
		"success":     result.Success,
		"deleted":     result.DeletedCount(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("cleaner responded")

	return result, nil
}
