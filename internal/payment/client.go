package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
)

// ErrorKind classifies why a gateway initialization ultimately failed.
// Callers use it to decide whether to tell the guest to retry.
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindRetryable    ErrorKind = "retryable"
	KindNonRetryable ErrorKind = "non_retryable"
)

// InitError is the terminal failure of an initialization cycle, after all
// retry attempts are spent.
type InitError struct {
	Kind       ErrorKind
	Attempts   int
	Duration   time.Duration
	StatusCode int
	Message    string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("payment initialization failed after %d attempt(s) in %s: %s", e.Attempts, e.Duration, e.Message)
}

// Retryable reports whether a fresh initialization cycle could plausibly
// succeed. Timeouts count as retryable from the guest's perspective.
func (e *InitError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindRetryable
}

// InitInput describes one transaction to initialize with the gateway.
// Amounts are in kobo. Metadata rides along and comes back on the webhook.
type InitInput struct {
	Email      string
	AmountKobo int64
	// Reference is the transaction reference handed to the gateway. Generated
	// when empty; the gateway echoes it back on the webhook.
	Reference string
	// CallbackURL overrides the configured callback resolution chain.
	CallbackURL string
	Metadata    map[string]any
}

// InitResult is the successful outcome of an initialization.
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the gateway's authoritative record of one transaction.
type VerifyResult struct {
	Status          string
	Reference       string
	AmountKobo      int64
	Currency        string
	Channel         string
	GatewayResponse string
	PaidAt          string
}

// Config wires the Paystack client. BaseURL is overridable so tests can point
// it at a local server.
type Config struct {
	SecretKey string
	BaseURL   string

	InitTimeout time.Duration
	MaxRetries  int
	RetryBase   time.Duration

	PublicAppURL string
	PlatformURL  string
}

const (
	defaultBaseURL     = "https://api.paystack.co"
	defaultInitTimeout = 10 * time.Second
	defaultMaxRetries  = 2
	defaultRetryBase   = 400 * time.Millisecond
	maxJitter          = 200 * time.Millisecond

	callbackPath = "/payment-success"
)

// Client talks to the Paystack REST API.
type Client struct {
	secretKey   string
	baseURL     string
	initTimeout time.Duration
	maxRetries  int
	retryBase   time.Duration

	publicAppURL string
	platformURL  string

	http *http.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		secretKey:    cfg.SecretKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		initTimeout:  cfg.InitTimeout,
		maxRetries:   cfg.MaxRetries,
		retryBase:    cfg.RetryBase,
		publicAppURL: cfg.PublicAppURL,
		platformURL:  cfg.PlatformURL,
		http:         &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.initTimeout <= 0 {
		c.initTimeout = defaultInitTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryBase <= 0 {
		c.retryBase = defaultRetryBase
	}
	return c
}

// CallbackURL resolves where the gateway should send the guest after payment.
// An explicit override wins, then the public app URL, then the platform URL,
// then a local development fallback.
func (c *Client) CallbackURL(override string) string {
	base := override
	if base == "" {
		base = c.publicAppURL
	}
	if base == "" {
		base = c.platformURL
	}
	if base == "" {
		base = "http://localhost:3000"
	}
	base = normalizeScheme(base)
	return strings.TrimRight(base, "/") + callbackPath
}

func normalizeScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	host := raw
	if u, err := url.Parse("//" + raw); err == nil && u.Host != "" {
		host = u.Host
	}
	if strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1") {
		return "http://" + raw
	}
	return "https://" + raw
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Channel         string `json:"channel"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
}

// attemptError is an internal per-attempt outcome used to drive the retry
// loop before the terminal InitError is built.
type attemptError struct {
	timeout    bool
	retryable  bool
	statusCode int
	message    string
}

func (e *attemptError) Error() string { return e.message }

var transientPhrases = []string{
	"timed out",
	"timeout",
	"temporarily unavailable",
	"service unavailable",
	"gateway",
}

func looksTransient(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range transientPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// InitializeTransaction starts a gateway transaction, retrying transient
// failures with exponential backoff. On failure the returned error is always
// an *InitError carrying the classification and attempt count.
func (c *Client) InitializeTransaction(ctx context.Context, in InitInput) (*InitResult, error) {
	reference := in.Reference
	if reference == "" {
		reference = "mabu-" + uuid.NewString()
	}
	body := map[string]any{
		"email":        in.Email,
		"amount":       in.AmountKobo,
		"reference":    reference,
		"callback_url": c.CallbackURL(in.CallbackURL),
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = in.Metadata
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize payload failed: %w", err)
	}

	start := time.Now()
	maxAttempts := 1 + c.maxRetries

	var last *attemptError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Exponential backoff with a little jitter so concurrent retries
			// do not land in lockstep.
			backoff := c.retryBase * time.Duration(1<<(attempt-2))
			backoff += time.Duration(rand.Int63n(int64(maxJitter)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, c.terminal(last, attempt-1, start)
			}
		}

		result, aerr := c.initializeOnce(ctx, payload)
		if aerr == nil {
			return result, nil
		}
		last = aerr

		logger.Get().Warn("payment initialization attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("statusCode", aerr.statusCode),
			zap.Bool("timeout", aerr.timeout),
			zap.Bool("retryable", aerr.retryable),
			zap.String("message", aerr.message))

		if !aerr.timeout && !aerr.retryable {
			return nil, c.terminal(last, attempt, start)
		}
	}

	return nil, c.terminal(last, maxAttempts, start)
}

func (c *Client) terminal(last *attemptError, attempts int, start time.Time) *InitError {
	ie := &InitError{
		Kind:     KindNonRetryable,
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if last != nil {
		ie.StatusCode = last.statusCode
		ie.Message = last.message
		switch {
		case last.timeout:
			ie.Kind = KindTimeout
		case last.retryable:
			ie.Kind = KindRetryable
		}
	} else {
		ie.Message = "no attempt completed"
		ie.Kind = KindTimeout
	}
	return ie
}

func (c *Client) initializeOnce(ctx context.Context, payload []byte) (*InitResult, *attemptError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost,
		c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, &attemptError{message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return nil, &attemptError{timeout: true, message: "request timed out"}
		}
		// Network-level failures are worth another attempt.
		return nil, &attemptError{retryable: true, message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &attemptError{retryable: true, message: fmt.Sprintf("read response: %v", err)}
	}

	var envelope paystackEnvelope
	_ = json.Unmarshal(raw, &envelope)
	message := envelope.Message
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &attemptError{retryable: true, statusCode: resp.StatusCode, message: message}
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return nil, &attemptError{
			retryable:  looksTransient(message),
			statusCode: resp.StatusCode,
			message:    message,
		}
	}

	var data initData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &attemptError{statusCode: resp.StatusCode, message: fmt.Sprintf("decode response: %v", err)}
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, &attemptError{statusCode: resp.StatusCode, message: "response missing authorization url or reference"}
	}

	return &InitResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// VerifyTransaction fetches the authoritative transaction state. Single
// attempt: verification callers have their own retry cadence.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify transaction failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read verify response failed: %w", err)
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode verify response failed: %w", err)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		message := envelope.Message
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("verify transaction returned %d: %s", resp.StatusCode, message)
	}

	var data verifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode verify data failed: %w", err)
	}

	return &VerifyResult{
		Status:          data.Status,
		Reference:       data.Reference,
		AmountKobo:      data.Amount,
		Currency:        data.Currency,
		Channel:         data.Channel,
		GatewayResponse: data.GatewayResponse,
		PaidAt:          data.PaidAt,
	}, nil
}
