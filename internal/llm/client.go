// Package llm wraps the generative-language provider behind a single call:
// given the accumulated conversation history, return generated text plus the
// grounding citations the provider attached to it.
//
// The client enforces a per-attempt timeout and a bounded retry policy.
// Transient failures (timeout, connection reset, rate limiting, provider 5xx)
// are retried with exponential backoff; authentication and malformed-request
// failures surface immediately as ErrGenerationRejected. Once retries are
// exhausted the call fails with ErrGenerationUnavailable and the caller
// decides how to compensate.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"

	"github.com/up2d8/up2d8-backend/internal/domain"
)

// ErrGenerationRejected is a non-retryable provider failure: bad credentials
// or a malformed request. Retrying cannot help, so it surfaces immediately.
var ErrGenerationRejected = errors.New("generation rejected")

// ErrGenerationUnavailable means every attempt failed transiently and the
// retry budget is spent.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// Reply is the result of one provider call.
type Reply struct {
	Text    string
	Sources []domain.Source
}

// Options tunes the client. Zero values fall back to the listed defaults.
type Options struct {
	Model          string        // default "gemini-2.5-flash"
	RequestTimeout time.Duration // per-attempt ceiling, default 30s
	MaxRetries     int           // retries after the first attempt, default 2
	BackoffBase    time.Duration // initial retry interval, default 500ms
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = "gemini-2.5-flash"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 2
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 500 * time.Millisecond
	}
	return o
}

// generateFunc is the provider seam; the real client binds it to
// genai Models.GenerateContent and tests inject fakes.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client calls the Gemini API with Google Search grounding enabled.
// It is safe for concurrent use.
type Client struct {
	opts     Options
	generate generateFunc
}

// NewClient constructs a Client authenticated with apiKey against the Gemini
// API backend.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Client{
		opts:     opts.withDefaults(),
		generate: gc.Models.GenerateContent,
	}, nil
}

// Generate builds a role-tagged prompt from the full ordered history
// (including the just-persisted user turn) and requests the provider with
// search grounding enabled. It returns the generated text and the citations
// extracted from the grounding metadata; citations without a URI are dropped.
func (c *Client) Generate(ctx context.Context, history []domain.Message) (Reply, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	attempt := 0
	op := func() (*genai.GenerateContentResponse, error) {
		attempt++
		generationAttempts.Inc()

		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()

		resp, err := c.generate(attemptCtx, c.opts.Model, contents, cfg)
		if err != nil {
			if isPermanent(err) {
				generationFailures.WithLabelValues("rejected").Inc()
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrGenerationRejected, err))
			}
			generationFailures.WithLabelValues("transient").Inc()
			log.Warn().Int("attempt", attempt).Err(err).Msg("generation attempt failed")
			return nil, err
		}
		if resp.Text() == "" {
			generationFailures.WithLabelValues("empty").Inc()
			return nil, errors.New("provider returned empty text")
		}
		return resp, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.opts.BackoffBase

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(1+c.opts.MaxRetries)),
	)
	if err != nil {
		if errors.Is(err, ErrGenerationRejected) {
			return Reply{}, err
		}
		return Reply{}, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	return Reply{
		Text:    resp.Text(),
		Sources: extractSources(resp),
	}, nil
}

// extractSources pulls citations from the first candidate's grounding
// metadata, verbatim URI and title, skipping chunks without a URI.
func extractSources(resp *genai.GenerateContentResponse) []domain.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	chunks := resp.Candidates[0].GroundingMetadata.GroundingChunks
	out := make([]domain.Source, 0, len(chunks))
	for _, ch := range chunks {
		if ch == nil || ch.Web == nil || ch.Web.URI == "" {
			continue
		}
		out = append(out, domain.Source{URI: ch.Web.URI, Title: ch.Web.Title})
	}
	return out
}

// isPermanent classifies a provider error. Auth and malformed-request
// failures are permanent; timeouts, resets, rate limits, and provider 5xx
// are transient.
func isPermanent(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return false
		}
		return apiErr.Code >= 400 && apiErr.Code < 500
	}
	// Network-level errors and deadline expiry are worth retrying.
	return false
}
