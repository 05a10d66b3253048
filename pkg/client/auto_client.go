package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/openlibx402/go-x402/pkg/internal/logging"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// Auto-pay defaults. The ceiling is never silently unlimited.
const (
	DefaultMaxPaymentAmount = "10.0"
	DefaultMaxRetries       = 3
)

// AutoClient wraps the explicit Client with a bounded retry loop that pays
// automatically when the demanded amount is within the configured ceiling.
// The retry counter is local to one logical call, so a single instance is
// safe for concurrent independent use.
type AutoClient struct {
	client     *Client
	maxRetries int
	autoRetry  bool
	ceiling    uint64
	ceilingStr string
	logger     *slog.Logger
}

// AutoOptions configures an AutoClient.
type AutoOptions struct {
	Options

	// MaxPaymentAmount is the spending ceiling per payment, as a decimal
	// string. Defaults to DefaultMaxPaymentAmount. This ceiling exists so an
	// unattended caller cannot be induced to overpay by a malicious or
	// misconfigured resource.
	MaxPaymentAmount string

	// AutoRetry pays and retries on 402 when enabled. Defaults to true.
	AutoRetry *bool

	// MaxRetries bounds the payment attempts per logical call. Defaults to
	// DefaultMaxRetries.
	MaxRetries int
}

// NewAuto creates an auto-pay client.
func NewAuto(opts AutoOptions) (*AutoClient, error) {
	inner, err := New(opts.Options)
	if err != nil {
		return nil, err
	}

	ceilingStr := opts.MaxPaymentAmount
	if ceilingStr == "" {
		ceilingStr = DefaultMaxPaymentAmount
	}
	ceiling, err := x402.ParseAmount(ceilingStr)
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err,
			"invalid max payment amount %q", ceilingStr)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &AutoClient{
		client:     inner,
		maxRetries: maxRetries,
		autoRetry:  to.ValueOr(opts.AutoRetry, true),
		ceiling:    ceiling,
		ceilingStr: ceilingStr,
		logger:     logging.Child(opts.Logger, "X402AutoClient"),
	}, nil
}

// Client exposes the underlying explicit client for manual operations.
func (c *AutoClient) Client() *Client {
	return c.client
}

// Get executes a GET request with automatic payment handling.
func (c *AutoClient) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.fetch(ctx, http.MethodGet, url, nil)
}

// Post executes a POST request with automatic payment handling.
func (c *AutoClient) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.fetch(ctx, http.MethodPost, url, body)
}

// Put executes a PUT request with automatic payment handling.
func (c *AutoClient) Put(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.fetch(ctx, http.MethodPut, url, body)
}

// Delete executes a DELETE request with automatic payment handling.
func (c *AutoClient) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.fetch(ctx, http.MethodDelete, url, nil)
}

// fetch drives one logical call through the payment state machine. It keeps
// paying and retrying until a non-402 response arrives, the ceiling is
// violated, the processor fails, or the retry budget runs out.
func (c *AutoClient) fetch(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	resp, err := c.request(ctx, method, url, body, nil)
	if err != nil {
		return nil, err
	}

	retries := 0
	for {
		// Any non-payment response passes through unchanged.
		if !c.client.IsPaymentRequired(resp) {
			return resp, nil
		}

		if !c.autoRetry {
			demand, err := c.client.ParseDemand(resp)
			if err != nil {
				return nil, err
			}
			return nil, x402.NewError(x402.KindPaymentRequired,
				"payment of %s required for %s", demand.MaxAmountRequired, demand.Resource)
		}

		if retries >= c.maxRetries {
			return nil, x402.NewError(x402.KindPaymentRequired, "Maximum retry attempts reached")
		}
		retries++

		demand, err := c.client.ParseDemand(resp)
		if err != nil {
			return nil, err
		}

		if err := c.checkCeiling(demand); err != nil {
			return nil, err
		}

		// Processor failures are terminal: a stale or underfunded demand
		// cannot succeed without caller intervention.
		proof, err := c.client.CreatePayment(ctx, demand)
		if err != nil {
			return nil, err
		}

		c.logger.InfoContext(ctx, "payment created, retrying request",
			slog.String("payment_id", demand.PaymentID),
			slog.String("amount", proof.ActualAmount),
			slog.Int("attempt", retries))

		resp, err = c.request(ctx, method, url, body, proof)
		if err != nil {
			return nil, err
		}
	}
}

func (c *AutoClient) request(ctx context.Context, method, url string, body []byte, proof *x402.PaymentProof) (*http.Response, error) {
	switch method {
	case http.MethodGet:
		return c.client.Get(ctx, url, proof)
	case http.MethodPost:
		return c.client.Post(ctx, url, body, proof)
	case http.MethodPut:
		return c.client.Put(ctx, url, body, proof)
	case http.MethodDelete:
		return c.client.Delete(ctx, url, proof)
	default:
		return nil, x402.NewError(x402.KindConfiguration, "unsupported HTTP method %q", method)
	}
}

func (c *AutoClient) checkCeiling(demand *x402.PaymentDemand) error {
	required, err := x402.ParseAmount(demand.MaxAmountRequired)
	if err != nil {
		return err
	}
	if required > c.ceiling {
		return x402.NewError(x402.KindPaymentRequired,
			"payment amount %s exceeds maximum allowed amount %s",
			demand.MaxAmountRequired, c.ceilingStr)
	}
	return nil
}
