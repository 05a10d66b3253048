// Package x402 implements the data model and wire encodings of the x402
// pay-per-request protocol: a server answers a request with a machine-readable
// payment demand (HTTP 402), the caller settles it on a ledger and retries the
// request with a proof of payment in a single header.
package x402

import (
	"encoding/base64"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// PaymentDemand describes the payment a resource guard requires before it
// serves a request. It is the exact JSON body of a 402 response. Demands are
// immutable value objects: all fields are set at construction and never
// mutated afterwards.
type PaymentDemand struct {
	MaxAmountRequired string    `json:"max_amount_required"`
	AssetType         string    `json:"asset_type"`
	AssetAddress      string    `json:"asset_address"`
	PaymentAddress    string    `json:"payment_address"`
	Network           string    `json:"network"`
	ExpiresAt         time.Time `json:"expires_at"`
	Nonce             string    `json:"nonce"`
	PaymentID         string    `json:"payment_id"`
	Resource          string    `json:"resource"`
	Description       string    `json:"description,omitempty"`
}

// DemandParams carries the inputs for building a fresh demand. Price,
// PaymentAddress, AssetAddress and Resource are required; the rest defaults.
type DemandParams struct {
	// Price is the demanded amount as a decimal string in display units.
	Price string

	// PaymentAddress is the ledger address that must receive the funds.
	PaymentAddress string

	// AssetAddress identifies the fungible token on the ledger.
	AssetAddress string

	// Network is the logical ledger identifier. Defaults to NetworkDevnet.
	Network string

	// AssetType tags the token kind. Defaults to AssetTypeSPL.
	AssetType string

	// Resource is the logical endpoint the demand guards.
	Resource string

	// Description is an optional human-readable note.
	Description string

	// ExpiresIn is the validity horizon. Defaults to DefaultExpiry.
	ExpiresIn time.Duration
}

// NewDemand builds a fresh payment demand with a unique payment id, a unique
// nonce and an expiry of now plus the configured horizon. Every call yields a
// demand usable exactly once conceptually; tracking consumed nonces is the
// resource guard's job (see the replay package).
func NewDemand(params DemandParams) (*PaymentDemand, error) {
	if _, err := ParseAmount(params.Price); err != nil {
		return nil, err
	}
	if params.PaymentAddress == "" {
		return nil, NewError(KindConfiguration, "payment address is required")
	}
	if params.AssetAddress == "" {
		return nil, NewError(KindConfiguration, "asset address is required")
	}
	if params.Resource == "" {
		return nil, NewError(KindConfiguration, "resource is required")
	}

	assetType := params.AssetType
	if assetType == "" {
		assetType = AssetTypeSPL
	}
	network := params.Network
	if network == "" {
		network = NetworkDevnet
	}
	expiresIn := params.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultExpiry
	}

	return &PaymentDemand{
		MaxAmountRequired: params.Price,
		AssetType:         assetType,
		AssetAddress:      params.AssetAddress,
		PaymentAddress:    params.PaymentAddress,
		Network:           network,
		ExpiresAt:         time.Now().UTC().Add(expiresIn),
		Nonce:             xid.New().String(),
		PaymentID:         uuid.NewString(),
		Resource:          params.Resource,
		Description:       params.Description,
	}, nil
}

// IsExpiredAt reports whether the demand is unusable at the given instant.
// A demand expires strictly after ExpiresAt passes.
func (d *PaymentDemand) IsExpiredAt(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Expired reports whether the demand has expired against the wall clock.
func (d *PaymentDemand) Expired() bool {
	return d.IsExpiredAt(time.Now().UTC())
}

// ToJSON serializes the demand to its canonical JSON form.
func (d *PaymentDemand) ToJSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", WrapError(KindSerializationError, err, "failed to serialize payment demand")
	}
	return string(data), nil
}

// DemandFromJSON parses a demand from its canonical JSON form.
func DemandFromJSON(raw string) (*PaymentDemand, error) {
	var d PaymentDemand
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, WrapError(KindInvalidPaymentRequest, err, "failed to parse payment demand")
	}
	return &d, nil
}

// ToHeaderValue encodes the demand as base64-wrapped JSON, safe to carry in a
// single HTTP header value.
func (d *PaymentDemand) ToHeaderValue() (string, error) {
	raw, err := d.ToJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// DemandFromHeaderValue decodes a demand from its base64-wrapped JSON form.
func DemandFromHeaderValue(encoded string) (*PaymentDemand, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, WrapError(KindSerializationError, err, "failed to decode base64 payment demand")
	}
	if !utf8.Valid(decoded) {
		return nil, NewError(KindInvalidPaymentRequest, "payment demand header is not valid UTF-8")
	}
	return DemandFromJSON(string(decoded))
}
