package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-softwarelab/common/pkg/slogx"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlibx402/go-x402/pkg/client"
	"github.com/openlibx402/go-x402/pkg/middleware/payment"
	"github.com/openlibx402/go-x402/pkg/processor"
	"github.com/openlibx402/go-x402/pkg/replay"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// alwaysDemand answers every request with a fresh 402 demand, regardless of
// any proof attached.
func alwaysDemand(t *testing.T, price string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		demand := newTestDemand(t, price, r.URL.Path)
		body, err := demand.ToJSON()
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(body))
	}
}

func newAutoClient(t *testing.T, mock *processor.MockProcessor, opts client.AutoOptions) *client.AutoClient {
	t.Helper()

	opts.Processor = mock
	opts.Logger = slogx.NewTestLogger(t)
	c, err := client.NewAuto(opts)
	require.NoError(t, err)
	return c
}

func TestNewAutoClient(t *testing.T) {
	t.Run("rejects an unparsable ceiling", func(t *testing.T) {
		_, err := client.NewAuto(client.AutoOptions{
			Options:          client.Options{Processor: processor.NewMockProcessor()},
			MaxPaymentAmount: "lots",
		})
		assert.True(t, x402.IsKind(err, x402.KindConfiguration))
	})

	t.Run("requires a processor", func(t *testing.T) {
		_, err := client.NewAuto(client.AutoOptions{})
		assert.ErrorIs(t, err, client.ErrNoProcessor)
	})
}

func TestAutoClientPassesThroughNonPaymentResponses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		mock := processor.NewMockProcessor()
		c := newAutoClient(t, mock, client.AutoOptions{})

		resp, err := c.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, 0, mock.CreateCalls)

		server.Close()
	}
}

func TestAutoClientEnforcesCeiling(t *testing.T) {
	server := httptest.NewServer(alwaysDemand(t, "1.00"))
	defer server.Close()

	mock := processor.NewMockProcessor()
	c := newAutoClient(t, mock, client.AutoOptions{MaxPaymentAmount: "0.50"})

	_, err := c.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, x402.IsKind(err, x402.KindPaymentRequired))
	assert.Contains(t, err.Error(), "1.00")
	assert.Contains(t, err.Error(), "0.50")

	// The ceiling must stop the flow before any payment is attempted.
	assert.Equal(t, 0, mock.CreateCalls)
}

func TestAutoClientBoundsRetries(t *testing.T) {
	server := httptest.NewServer(alwaysDemand(t, "0.01"))
	defer server.Close()

	mock := processor.NewMockProcessor()
	c := newAutoClient(t, mock, client.AutoOptions{MaxRetries: 3})

	_, err := c.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, x402.IsKind(err, x402.KindPaymentRequired))
	assert.Contains(t, err.Error(), "Maximum retry attempts reached")
	assert.Equal(t, 3, mock.CreateCalls)
}

func TestAutoClientWithoutAutoRetry(t *testing.T) {
	server := httptest.NewServer(alwaysDemand(t, "0.01"))
	defer server.Close()

	mock := processor.NewMockProcessor()
	c := newAutoClient(t, mock, client.AutoOptions{AutoRetry: to.Ptr(false)})

	_, err := c.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, x402.IsKind(err, x402.KindPaymentRequired))
	assert.Equal(t, 0, mock.CreateCalls)
}

func TestAutoClientPropagatesProcessorErrors(t *testing.T) {
	server := httptest.NewServer(alwaysDemand(t, "0.01"))
	defer server.Close()

	mock := processor.NewMockProcessor()
	mock.CreateErr = x402.NewError(x402.KindInsufficientFunds, "need 0.01, have 0")
	c := newAutoClient(t, mock, client.AutoOptions{})

	_, err := c.Get(context.Background(), server.URL)

	// Terminal: an underfunded demand cannot succeed by retrying.
	assert.True(t, x402.IsKind(err, x402.KindInsufficientFunds))
	assert.Equal(t, 1, mock.CreateCalls)
}

func TestAutoClientPaysAndRetries(t *testing.T) {
	var issued *x402.PaymentDemand
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(x402.HeaderPaymentAuthorization)
		if header == "" {
			var err error
			issued, err = x402.NewDemand(x402.DemandParams{
				Price:          "0.10",
				PaymentAddress: testPaymentAddress,
				AssetAddress:   testAssetAddress,
				Resource:       r.URL.Path,
			})
			require.NoError(t, err)

			body, err := issued.ToJSON()
			require.NoError(t, err)
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(body))
			return
		}

		proof, err := x402.ProofFromHeaderValue(header)
		require.NoError(t, err)
		require.NotNil(t, issued)
		assert.Equal(t, issued.PaymentID, proof.PaymentID)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("paid content"))
	}))
	defer server.Close()

	mock := processor.NewMockProcessor()
	c := newAutoClient(t, mock, client.AutoOptions{})

	resp, err := c.Get(context.Background(), server.URL+"/premium")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "paid content", string(body))
	assert.Equal(t, 1, mock.CreateCalls)
}

// TestAutoClientEndToEnd runs the full exchange against the real payment
// middleware: unauthenticated GET yields a 402 demand, the client pays and
// retries with a proof, the guard verifies and serves the resource.
func TestAutoClientEndToEnd(t *testing.T) {
	guardProcessor := processor.NewMockProcessor()

	middleware, err := payment.New(payment.Options{
		PaymentAddress: testPaymentAddress,
		AssetAddress:   testAssetAddress,
		Price:          "0.01",
		Processor:      guardProcessor,
		Replay:         replay.NewMemoryStore(),
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/basic", middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := payment.GetPaymentInfoFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "0.01", info.AmountPaid)
		assert.True(t, info.Verified)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("basic content"))
	})))
	server := httptest.NewServer(mux)
	defer server.Close()

	payerProcessor := processor.NewMockProcessor()

	// First look at the demand explicitly.
	explicit, err := client.New(client.Options{Processor: payerProcessor})
	require.NoError(t, err)

	resp, err := explicit.Get(context.Background(), server.URL+"/basic", nil)
	require.NoError(t, err)
	require.True(t, explicit.IsPaymentRequired(resp))

	demand, err := explicit.ParseDemand(resp)
	require.NoError(t, err)
	assert.Equal(t, "/basic", demand.Resource)
	assert.Equal(t, "0.01", demand.MaxAmountRequired)

	// Then run the whole flow automatically.
	auto := newAutoClient(t, payerProcessor, client.AutoOptions{})

	resp, err = auto.Get(context.Background(), server.URL+"/basic")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.01", resp.Header.Get(payment.HeaderAmountPaid))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "basic content", string(body))

	assert.Equal(t, 1, payerProcessor.CreateCalls)
	assert.Equal(t, 1, guardProcessor.VerifyCalls)
}
