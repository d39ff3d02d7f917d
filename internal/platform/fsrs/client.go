package fsrs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/phrazzld/vocab-review/internal/platform/logger"
	"github.com/phrazzld/vocab-review/internal/redact"
	"github.com/phrazzld/vocab-review/internal/scoring"
)

const (
	reviewPath = "/review"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20

	// maxErrorBodyChars bounds how much of an error body is copied into an error.
	maxErrorBodyChars = 200
)

// Client calls the FSRS scheduling service.
type Client struct {
	logger     *slog.Logger
	reviewURL  string
	httpClient *http.Client
}

// Compile-time check that Client implements scoring.Scorer.
var _ scoring.Scorer = (*Client)(nil)

// NewClient creates a Client for the service at cfg.BaseURL.
//
// Connecting is bounded by cfg.ConnectTimeout and waiting for the response by
// cfg.ReadTimeout; the whole exchange never exceeds their sum. Requests are
// never retried.
func NewClient(logger *slog.Logger, cfg config.ScoringConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ConnectTimeout <= 0 || cfg.ReadTimeout <= 0 {
		return nil, errors.New("scoring timeouts must be positive")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid scoring base URL %q", cfg.BaseURL)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		logger:    logger.With(slog.String("component", "fsrs_client")),
		reviewURL: base.String() + reviewPath,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
	}, nil
}

// Score sends card and rating to the scoring service and returns the card's next state.
//
// Returns:
//   - domain.ErrInvalidRating (wrapped) if rating is outside 1..4; nothing is sent
//   - scoring.ErrGatewayTimeout if the service does not answer within the configured bounds
//   - scoring.ErrGatewayUnavailable if the service cannot be reached
//   - scoring.ErrGatewayRejected on a non-2xx status or a malformed response
func (c *Client) Score(
	ctx context.Context,
	card domain.CardState,
	rating domain.Rating,
	reviewTime time.Time,
) (domain.CardState, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return domain.CardState{}, err
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	body, err := json.Marshal(reviewRequest{
		Card:       toWire(card),
		Rating:     int(rating),
		ReviewTime: formatTime(reviewTime),
	})
	if err != nil {
		return domain.CardState{}, fmt.Errorf("failed to encode review request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.reviewURL, bytes.NewReader(body))
	if err != nil {
		return domain.CardState{}, fmt.Errorf("failed to build review request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.DebugContext(ctx, "calling scoring service",
		slog.String("rating", rating.String()),
		slog.String("state", string(card.State)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = classifyTransportError(ctx, err)
		log.ErrorContext(ctx, "scoring service call failed", redact.Attr(err))
		return domain.CardState{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		err = classifyTransportError(ctx, err)
		log.ErrorContext(ctx, "failed to read scoring response", redact.Attr(err))
		return domain.CardState{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WarnContext(ctx, "scoring service rejected request",
			slog.Int("status", resp.StatusCode),
			slog.String("body", redact.String(truncate(string(payload)))))
		return domain.CardState{}, fmt.Errorf("%w: status %d: %s",
			scoring.ErrGatewayRejected, resp.StatusCode, truncate(string(payload)))
	}

	var out wireCard
	if err := json.Unmarshal(payload, &out); err != nil {
		log.WarnContext(ctx, "scoring service returned malformed JSON", redact.Attr(err))
		return domain.CardState{}, fmt.Errorf("%w: malformed response: %v", scoring.ErrGatewayRejected, err)
	}

	next, err := fromWire(out, card)
	if err != nil {
		log.WarnContext(ctx, "scoring service returned an unusable card", redact.Attr(err))
		return domain.CardState{}, fmt.Errorf("%w: %v", scoring.ErrGatewayRejected, err)
	}

	log.InfoContext(ctx, "card scored",
		slog.String("rating", rating.String()),
		slog.String("old_state", string(card.State)),
		slog.String("new_state", string(next.State)),
		slog.Time("due_at", next.DueAt))

	return next, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", scoring.ErrGatewayTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", scoring.ErrGatewayTimeout, err)
	}
	return fmt.Errorf("%w: %v", scoring.ErrGatewayUnavailable, err)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrorBodyChars {
		return s
	}
	return s[:maxErrorBodyChars] + "..."
}
