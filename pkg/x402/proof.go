package x402

import (
	"encoding/base64"
	"encoding/json"
	"time"
	"unicode/utf8"
)

// PaymentProof is the payer-issued evidence that a demand was satisfied. It
// travels base64-encoded in the X-Payment-Authorization header of the retried
// request. A proof is only meaningful paired with the demand it answers; the
// engine never infers a demand from a proof.
type PaymentProof struct {
	PaymentID       string    `json:"payment_id"`
	ActualAmount    string    `json:"actual_amount"`
	PaymentAddress  string    `json:"payment_address"`
	AssetAddress    string    `json:"asset_address"`
	Network         string    `json:"network"`
	Timestamp       time.Time `json:"timestamp"`
	Signature       string    `json:"signature"`
	PublicKey       string    `json:"public_key"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
}

// ProofParams carries the inputs for minting a proof.
type ProofParams struct {
	// PaymentID must equal the id of the demand being answered.
	PaymentID string

	// ActualAmount is the amount actually transferred, as a decimal string.
	ActualAmount string

	// PaymentAddress, AssetAddress and Network are echoed from the demand
	// for downstream cross-checks.
	PaymentAddress string
	AssetAddress   string
	Network        string

	// Signature is the ledger transaction reference.
	Signature string

	// PublicKey is the payer's ledger identity.
	PublicKey string

	// TransactionHash is optional; it defaults to Signature.
	TransactionHash string
}

// NewProof mints a proof, stamping the current time and defaulting the
// transaction hash to the signature when not given.
func NewProof(params ProofParams) *PaymentProof {
	txHash := params.TransactionHash
	if txHash == "" {
		txHash = params.Signature
	}

	return &PaymentProof{
		PaymentID:       params.PaymentID,
		ActualAmount:    params.ActualAmount,
		PaymentAddress:  params.PaymentAddress,
		AssetAddress:    params.AssetAddress,
		Network:         params.Network,
		Timestamp:       time.Now().UTC(),
		Signature:       params.Signature,
		PublicKey:       params.PublicKey,
		TransactionHash: txHash,
	}
}

// ToJSON serializes the proof to its canonical JSON form.
func (p *PaymentProof) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", WrapError(KindSerializationError, err, "failed to serialize payment proof")
	}
	return string(data), nil
}

// ProofFromJSON parses a proof from its canonical JSON form.
func ProofFromJSON(raw string) (*PaymentProof, error) {
	var p PaymentProof
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, WrapError(KindInvalidPaymentAuthorization, err, "failed to parse payment proof")
	}
	return &p, nil
}

// ToHeaderValue encodes the proof for the X-Payment-Authorization header.
func (p *PaymentProof) ToHeaderValue() (string, error) {
	raw, err := p.ToJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// ProofFromHeaderValue decodes a proof from an X-Payment-Authorization
// header value.
func ProofFromHeaderValue(encoded string) (*PaymentProof, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, WrapError(KindSerializationError, err, "failed to decode base64 payment proof")
	}
	if !utf8.Valid(decoded) {
		return nil, NewError(KindInvalidPaymentAuthorization, "payment proof header is not valid UTF-8")
	}
	return ProofFromJSON(string(decoded))
}
