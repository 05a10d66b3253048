// Package payment provides net/http middleware guarding resources behind an
// x402 payment demand: requests without a payment proof are answered with a
// 402 whose body is a fresh demand, requests carrying a proof are verified
// and passed through to the wrapped handler.
package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/openlibx402/go-x402/pkg/internal/logging"
	"github.com/openlibx402/go-x402/pkg/processor"
	"github.com/openlibx402/go-x402/pkg/replay"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// Middleware is the payment middleware handler.
type Middleware struct {
	paymentAddress        string
	assetAddress          string
	network               string
	description           string
	expiresIn             time.Duration
	calculateRequestPrice func(r *http.Request) (string, error)
	processor             processor.PaymentProcessor
	replay                replay.Store
	logger                *slog.Logger
}

// New creates a new payment middleware.
func New(opts Options) (*Middleware, error) {
	if opts.PaymentAddress == "" {
		return nil, ErrNoPaymentAddress
	}
	if opts.AssetAddress == "" {
		return nil, ErrNoAssetAddress
	}
	if opts.Price == "" && opts.CalculateRequestPrice == nil {
		return nil, ErrNoPrice
	}

	priceFunc := opts.CalculateRequestPrice
	if priceFunc == nil {
		price := opts.Price
		priceFunc = func(*http.Request) (string, error) { return price, nil }
	}

	network := opts.Network
	if network == "" {
		network = x402.NetworkDevnet
	}
	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = x402.DefaultExpiry
	}

	return &Middleware{
		paymentAddress:        opts.PaymentAddress,
		assetAddress:          opts.AssetAddress,
		network:               network,
		description:           opts.Description,
		expiresIn:             expiresIn,
		calculateRequestPrice: priceFunc,
		processor:             opts.Processor,
		replay:                opts.Replay,
		logger:                logging.Child(opts.Logger, "PaymentMiddleware"),
	}, nil
}

// Handler returns a middleware handler function.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		price, err := m.calculateRequestPrice(r)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrCodePaymentInternal,
				"Error calculating request price")
			return
		}

		if price == "" || price == "0" {
			ctx := context.WithValue(r.Context(), PaymentKey, &PaymentInfo{AmountPaid: "0"})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		proofHeader := r.Header.Get(x402.HeaderPaymentAuthorization)
		if proofHeader == "" {
			m.respondWithDemand(w, r, price)
			return
		}

		proof, err := x402.ProofFromHeaderValue(proofHeader)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, ErrCodeMalformedPayment,
				"Invalid payment proof format")
			return
		}

		if proof.PaymentAddress != m.paymentAddress || proof.AssetAddress != m.assetAddress {
			respondWithError(w, http.StatusBadRequest, ErrCodePaymentFailed,
				"Payment proof does not match this resource's payment details")
			return
		}

		if m.replay != nil {
			fresh, err := m.replay.Consume(r.Context(), proof.PaymentID, proof.Signature, m.expiresIn)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "replay store failure",
					logging.Error(err), logging.Request(r))
				respondWithError(w, http.StatusInternalServerError, ErrCodePaymentInternal,
					"Error checking payment proof")
				return
			}
			if !fresh {
				respondWithError(w, http.StatusBadRequest, ErrCodeReplayDetected,
					"Payment proof has already been used")
				return
			}
		}

		verified := false
		if m.processor != nil {
			valid, err := m.processor.VerifyPayment(r.Context(), proof, price)
			if err != nil || !valid {
				if err != nil {
					m.logger.WarnContext(r.Context(), "payment verification failed",
						logging.Error(err),
						slog.String("payment_id", proof.PaymentID))
				}
				respondWithError(w, http.StatusBadRequest, ErrCodePaymentFailed,
					"Payment could not be verified")
				return
			}
			verified = true
		}

		m.logger.InfoContext(r.Context(), "payment accepted",
			slog.String("payment_id", proof.PaymentID),
			slog.String("amount", proof.ActualAmount),
			logging.Request(r))

		w.Header().Set(HeaderAmountPaid, price)

		ctx := context.WithValue(r.Context(), PaymentKey, &PaymentInfo{
			PaymentID:  proof.PaymentID,
			AmountPaid: proof.ActualAmount,
			Signature:  proof.Signature,
			PublicKey:  proof.PublicKey,
			Verified:   verified,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// respondWithDemand answers with 402 and a fresh payment demand as the exact
// response body, no envelope.
func (m *Middleware) respondWithDemand(w http.ResponseWriter, r *http.Request, price string) {
	demand, err := x402.NewDemand(x402.DemandParams{
		Price:          price,
		PaymentAddress: m.paymentAddress,
		AssetAddress:   m.assetAddress,
		Network:        m.network,
		Resource:       r.URL.Path,
		Description:    m.description,
		ExpiresIn:      m.expiresIn,
	})
	if err != nil {
		m.logger.ErrorContext(r.Context(), "failed to build payment demand",
			logging.Error(err), logging.Request(r))
		respondWithError(w, http.StatusInternalServerError, ErrCodeServerMisconfigured,
			"Error building payment demand")
		return
	}

	body, err := demand.ToJSON()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrCodePaymentInternal,
			"Error serializing payment demand")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	_, _ = w.Write([]byte(body))
}

// respondWithError creates a standardized error response.
func respondWithError(w http.ResponseWriter, status int, code, message string, extraData ...map[string]any) {
	resp := map[string]any{
		"status":      "error",
		"code":        code,
		"description": message,
	}

	if len(extraData) > 0 {
		for k, v := range extraData[0] {
			resp[k] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		return
	}
}
