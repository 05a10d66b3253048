// Package client provides the caller side of the x402 payment flow: an
// explicit client that gives full manual control over each step, and an
// auto-pay client that settles 402 responses automatically under a spending
// ceiling and a bounded retry budget.
package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/openlibx402/go-x402/pkg/internal/logging"
	"github.com/openlibx402/go-x402/pkg/processor"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// ErrNoProcessor is returned when a client is constructed without a payment
// processor.
var ErrNoProcessor = errors.New("a payment processor must be supplied to the client")

// Client issues HTTP requests with optional payment proofs attached. It holds
// no per-call mutable state and is safe for concurrent use. No retry logic
// lives here; every step of the flow is driven by the caller.
type Client struct {
	httpClient *http.Client
	processor  processor.PaymentProcessor
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	// Processor settles demands and verifies proofs. Required.
	Processor processor.PaymentProcessor

	// HTTPClient defaults to a plain http.Client.
	HTTPClient *http.Client

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates an explicit x402 client.
func New(opts Options) (*Client, error) {
	if opts.Processor == nil {
		return nil, ErrNoProcessor
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		processor:  opts.Processor,
		logger:     logging.Child(opts.Logger, "X402Client"),
	}, nil
}

// Do executes the request, attaching the proof as the payment header when
// given one. A transport failure surfaces as NetworkError and is never
// silently retried.
func (c *Client) Do(ctx context.Context, req *http.Request, proof *x402.PaymentProof) (*http.Response, error) {
	if proof != nil {
		headerValue, err := proof.ToHeaderValue()
		if err != nil {
			return nil, err
		}
		req.Header.Set(x402.HeaderPaymentAuthorization, headerValue)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, x402.WrapError(x402.KindNetworkError, err, "request to %s failed", req.URL)
	}
	return resp, nil
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, url string, proof *x402.PaymentProof) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid request")
	}
	return c.Do(ctx, req, proof)
}

// Post executes a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body []byte, proof *x402.PaymentProof) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(ctx, req, proof)
}

// Put executes a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body []byte, proof *x402.PaymentProof) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(ctx, req, proof)
}

// Delete executes a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, proof *x402.PaymentProof) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid request")
	}
	return c.Do(ctx, req, proof)
}

// IsPaymentRequired reports whether the response demands payment.
func (c *Client) IsPaymentRequired(resp *http.Response) bool {
	return resp.StatusCode == http.StatusPaymentRequired
}

// ParseDemand extracts the payment demand embedded in a 402 response body.
// The body is consumed and closed.
func (c *Client) ParseDemand(resp *http.Response) (*x402.PaymentDemand, error) {
	if !c.IsPaymentRequired(resp) {
		return nil, x402.NewError(x402.KindInvalidPaymentRequest,
			"response status %d does not demand payment", resp.StatusCode)
	}

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, x402.WrapError(x402.KindNetworkError, err, "failed to read response body")
	}

	return x402.DemandFromJSON(string(body))
}

// CreatePayment settles the demand through the configured processor.
func (c *Client) CreatePayment(ctx context.Context, demand *x402.PaymentDemand) (*x402.PaymentProof, error) {
	c.logger.DebugContext(ctx, "creating payment",
		slog.String("payment_id", demand.PaymentID),
		slog.String("amount", demand.MaxAmountRequired),
		slog.String("resource", demand.Resource))
	return c.processor.CreatePayment(ctx, demand)
}

// VerifyPayment checks a proof through the configured processor.
func (c *Client) VerifyPayment(ctx context.Context, proof *x402.PaymentProof, expectedAmount string) (bool, error) {
	return c.processor.VerifyPayment(ctx, proof, expectedAmount)
}
