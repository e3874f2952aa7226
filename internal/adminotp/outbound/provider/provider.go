// Package provider talks to the external OTP-issuing service.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrCodeUnavailable is returned once the retry budget is spent without a code.
	ErrCodeUnavailable = errors.New("provider: otp code unavailable")
	// ErrURLRequired is returned when the client is built without an endpoint.
	ErrURLRequired = errors.New("provider: otp service url is required")

	errEmptyCode = errors.New("provider: response carried no code")
)

const (
	defaultTimeout = 10 * time.Second
	defaultBackoff = 200 * time.Millisecond
)

// Config configures the OTP service client.
type Config struct {
	// URL is the OTP-issuing endpoint.
	URL string
	// MaxTries is the retry ceiling; the service is called at most MaxTries+1 times.
	MaxTries int
	// Backoff is the constant pause between attempts.
	Backoff time.Duration
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

type requestBody struct {
	To string `json:"to"`
}

type responseBody struct {
	Code *string `json:"code"`
}

// Client requests OTP codes with a bounded retry loop.
type Client struct {
	url      string
	maxTries uint64
	backoff  time.Duration
	timeout  time.Duration
	http     *http.Client
	ins      instrument.Instrumentation
}

// New builds a Client from cfg.
func New(cfg Config, ins instrument.Instrumentation) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrURLRequired
	}

	c := &Client{
		url:     cfg.URL,
		backoff: cfg.Backoff,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		ins:     ins,
	}
	if cfg.MaxTries > 0 {
		c.maxTries = uint64(cfg.MaxTries)
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}

	return c, nil
}

// RequestCode asks the service to issue a code for identifier.
//
// Transport errors, non-200 answers, malformed bodies and empty codes all
// count as "no code yet" and are retried until the ceiling is reached.
func (c *Client) RequestCode(ctx context.Context, identifier string) (string, error) {
	ctx, span := c.ins.Tracer("adminotp.outbound.provider").Start(ctx, "RequestCode")
	defer span.End()

	var (
		code    string
		attempt int
	)

	b := retry.WithMaxRetries(c.maxTries, retry.NewConstant(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		got, err := c.requestOnce(ctx, identifier)
		if err != nil {
			slog.WarnContext(ctx, "otp service attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		code = got
		return nil
	})

	span.SetAttributes(attribute.Int("otp.provider.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "otp service exhausted retries", "attempts", attempt, "error", err)
		return "", errors.Join(ErrCodeUnavailable, err)
	}

	return code, nil
}

func (c *Client) requestOnce(ctx context.Context, identifier string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := json.Marshal(requestBody{To: identifier})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		//nolint:errcheck // drain for connection reuse
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("provider: unexpected status %d", resp.StatusCode)
	}

	var body responseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("provider: decode response: %w", err)
	}

	if body.Code == nil || *body.Code == "" {
		return "", errEmptyCode
	}

	return *body.Code, nil
}
