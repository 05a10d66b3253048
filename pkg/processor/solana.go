package processor

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/openlibx402/go-x402/pkg/internal/logging"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// confirmPollInterval is how often broadcast confirmation is re-checked.
const confirmPollInterval = 500 * time.Millisecond

// SolanaProcessor settles x402 payments as SPL token transfers on Solana.
// It implements PaymentProcessor. An instance holds no per-call mutable
// state and is safe for concurrent use.
type SolanaProcessor struct {
	client *rpc.Client
	signer solana.PrivateKey
	logger *slog.Logger
}

// SolanaOptions configures a SolanaProcessor.
type SolanaOptions struct {
	// RPCURL is the JSON-RPC endpoint. When empty it is derived from Network.
	RPCURL string

	// Network picks the default endpoint when RPCURL is empty.
	Network string

	// Signer is the payer's keypair. Required for CreatePayment; a
	// verify-only processor (the resource-guard side) may leave it empty.
	Signer solana.PrivateKey

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewSolanaProcessor creates a processor against the given endpoint.
func NewSolanaProcessor(opts SolanaOptions) *SolanaProcessor {
	rpcURL := opts.RPCURL
	if rpcURL == "" {
		rpcURL = DefaultRPCURL(opts.Network)
	}

	return &SolanaProcessor{
		client: rpc.New(rpcURL),
		signer: opts.Signer,
		logger: logging.Child(opts.Logger, "SolanaProcessor"),
	}
}

// DefaultRPCURL returns the conventional public endpoint for a logical
// network name, falling back to devnet for unknown names.
func DefaultRPCURL(network string) string {
	switch network {
	case x402.NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case x402.NetworkTestnet:
		return "https://api.testnet.solana.com"
	default:
		return "https://api.devnet.solana.com"
	}
}

// CreatePayment implements PaymentProcessor. It checks expiry and balance,
// builds a transfer of exactly the demanded maximum (provisioning the
// recipient's token account in the same transaction when missing), signs,
// broadcasts, and awaits confirmation.
func (p *SolanaProcessor) CreatePayment(ctx context.Context, demand *x402.PaymentDemand) (*x402.PaymentProof, error) {
	if demand.Expired() {
		return nil, x402.NewError(x402.KindPaymentExpired,
			"payment demand %s expired at %s", demand.PaymentID, demand.ExpiresAt.Format(time.RFC3339))
	}
	if len(p.signer) == 0 {
		return nil, x402.NewError(x402.KindConfiguration, "processor has no signing credential")
	}

	amount, err := x402.ParseAmount(demand.MaxAmountRequired)
	if err != nil {
		return nil, err
	}

	recipient, err := solana.PublicKeyFromBase58(demand.PaymentAddress)
	if err != nil {
		return nil, x402.WrapError(x402.KindInvalidPaymentRequest, err,
			"invalid payment address %q", demand.PaymentAddress)
	}
	mint, err := solana.PublicKeyFromBase58(demand.AssetAddress)
	if err != nil {
		return nil, x402.WrapError(x402.KindInvalidPaymentRequest, err,
			"invalid asset address %q", demand.AssetAddress)
	}

	payer := p.signer.PublicKey()
	payerAccount, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, x402.WrapError(x402.KindLedgerError, err, "failed to derive payer token account")
	}
	recipientAccount, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, x402.WrapError(x402.KindLedgerError, err, "failed to derive recipient token account")
	}

	if err := p.checkBalance(ctx, payerAccount, amount); err != nil {
		return nil, err
	}

	var instructions []solana.Instruction

	recipientExists, err := p.accountExists(ctx, recipientAccount)
	if err != nil {
		return nil, err
	}
	if !recipientExists {
		p.logger.DebugContext(ctx, "provisioning recipient token account",
			slog.String("account", recipientAccount.String()))
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(payer, recipient, mint).Build())
	}

	instructions = append(instructions, token.NewTransferCheckedInstruction(
		amount,
		uint8(x402.AmountDecimals),
		payerAccount,
		mint,
		recipientAccount,
		payer,
		[]solana.PublicKey{},
	).Build())

	blockhash, err := p.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, x402.WrapError(x402.KindNetworkError, err, "failed to fetch latest blockhash")
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, x402.WrapError(x402.KindLedgerError, err, "failed to build transaction")
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &p.signer
		}
		return nil
	}); err != nil {
		return nil, x402.WrapError(x402.KindLedgerError, err, "failed to sign transaction")
	}

	sig, err := p.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, x402.WrapError(x402.KindTransactionBroadcast, err, "failed to broadcast transaction")
	}

	if err := p.awaitConfirmation(ctx, sig); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "payment settled",
		slog.String("payment_id", demand.PaymentID),
		slog.String("amount", demand.MaxAmountRequired),
		slog.String("signature", sig.String()))

	return x402.NewProof(x402.ProofParams{
		PaymentID:      demand.PaymentID,
		ActualAmount:   demand.MaxAmountRequired,
		PaymentAddress: demand.PaymentAddress,
		AssetAddress:   demand.AssetAddress,
		Network:        demand.Network,
		Signature:      sig.String(),
		PublicKey:      payer.String(),
	}), nil
}

// VerifyPayment implements PaymentProcessor.
func (p *SolanaProcessor) VerifyPayment(ctx context.Context, proof *x402.PaymentProof, expectedAmount string) (bool, error) {
	sig, err := solana.SignatureFromBase58(proof.Signature)
	if err != nil {
		return false, x402.WrapError(x402.KindInvalidPaymentAuthorization, err,
			"invalid transaction signature %q", proof.Signature)
	}

	expected, err := x402.ParseAmount(expectedAmount)
	if err != nil {
		return false, err
	}
	actual, err := x402.ParseAmount(proof.ActualAmount)
	if err != nil {
		return false, x402.WrapError(x402.KindInvalidPaymentAuthorization, err,
			"invalid actual amount %q", proof.ActualAmount)
	}
	if actual < expected {
		return false, x402.NewError(x402.KindPaymentVerification,
			"payment amount %s is less than required %s", proof.ActualAmount, expectedAmount)
	}

	tx, err := p.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return false, x402.WrapError(x402.KindPaymentVerification, err,
			"transaction %s not found", proof.Signature)
	}
	if tx == nil {
		return false, x402.NewError(x402.KindPaymentVerification,
			"transaction %s not found", proof.Signature)
	}
	if tx.Meta != nil && tx.Meta.Err != nil {
		return false, x402.NewError(x402.KindPaymentVerification,
			"transaction %s failed on-chain", proof.Signature)
	}

	return true, nil
}

// TokenBalance returns the spendable balance of a wallet for the given token,
// in minor units. A wallet without a token account has a balance of zero.
func (p *SolanaProcessor) TokenBalance(ctx context.Context, walletAddress, assetAddress string) (uint64, error) {
	wallet, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return 0, x402.WrapError(x402.KindInvalidPaymentRequest, err, "invalid wallet address %q", walletAddress)
	}
	mint, err := solana.PublicKeyFromBase58(assetAddress)
	if err != nil {
		return 0, x402.WrapError(x402.KindInvalidPaymentRequest, err, "invalid asset address %q", assetAddress)
	}

	account, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return 0, x402.WrapError(x402.KindLedgerError, err, "failed to derive token account")
	}

	return p.tokenAccountBalance(ctx, account)
}

func (p *SolanaProcessor) checkBalance(ctx context.Context, tokenAccount solana.PublicKey, required uint64) error {
	exists, err := p.accountExists(ctx, tokenAccount)
	if err != nil {
		return err
	}
	if !exists {
		return x402.NewError(x402.KindInsufficientFunds,
			"insufficient funds: need %s, have 0", x402.FormatAmount(required))
	}

	balance, err := p.tokenAccountBalance(ctx, tokenAccount)
	if err != nil {
		return err
	}
	if balance < required {
		return x402.NewError(x402.KindInsufficientFunds,
			"insufficient funds: need %s, have %s", x402.FormatAmount(required), x402.FormatAmount(balance))
	}
	return nil
}

func (p *SolanaProcessor) tokenAccountBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	result, err := p.client.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentFinalized)
	if err != nil {
		return 0, x402.WrapError(x402.KindNetworkError, err, "failed to read token balance")
	}
	if result == nil || result.Value == nil {
		return 0, nil
	}

	// Amount is the raw integer in minor units, as a string. Never go
	// through the UI float representation for money.
	balance, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, x402.WrapError(x402.KindLedgerError, err, "unparsable balance %q", result.Value.Amount)
	}
	return balance, nil
}

func (p *SolanaProcessor) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := p.client.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, x402.WrapError(x402.KindNetworkError, err, "failed to check account existence")
	}
	return info != nil && info.Value != nil, nil
}

// awaitConfirmation polls the ledger until the signature reaches confirmed
// commitment. An already-broadcast transfer is irreversible: once this step
// fails or is abandoned the caller must not assume the payment was lost.
func (p *SolanaProcessor) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		statuses, err := p.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return x402.NewError(x402.KindTransactionBroadcast,
					"transaction %s failed on-chain", sig)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return x402.WrapError(x402.KindTransactionBroadcast, ctx.Err(),
				"gave up awaiting confirmation of %s", sig)
		case <-ticker.C:
		}
	}
}
