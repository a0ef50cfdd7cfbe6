package client

import (
	"context"

	"iap-entitlement-service/internal/model"
)

// VerificationResult is the gateway's signed-transaction envelope: either a
// verified record or the gateway's original rejection error. The core never
// re-verifies signatures; it only unwraps.
type VerificationResult struct {
	Transaction *model.TransactionRecord
	Err         error
}

type PurchaseOutcomeKind string

const (
	OutcomeSuccess       PurchaseOutcomeKind = "SUCCESS"
	OutcomePending       PurchaseOutcomeKind = "PENDING"
	OutcomeUserCancelled PurchaseOutcomeKind = "USER_CANCELLED"
	OutcomeUnknown       PurchaseOutcomeKind = "UNKNOWN"
)

// PurchaseOutcome is the gateway's answer to a purchase call. Verification
// is populated only when Kind is OutcomeSuccess.
type PurchaseOutcome struct {
	Kind         PurchaseOutcomeKind
	Verification VerificationResult
}

// StoreClient is the storefront gateway boundary. Implementations own all
// transport, payment and signature-verification detail; the reconciliation
// core only reacts to what comes back.
type StoreClient interface {
	FetchProducts(ctx context.Context, ids []string) ([]*model.Product, error)

	Purchase(ctx context.Context, productID string) (*PurchaseOutcome, error)

	// CurrentEntitlements iterates the finite feed of currently valid
	// entitlement transactions. Restartable; each call replays the feed.
	// Iteration stops early when fn returns an error.
	CurrentEntitlements(ctx context.Context, fn func(VerificationResult) error) error

	// TransactionUpdates returns the live event feed (renewals, refunds,
	// out-of-band purchases). Infinite and not restartable; the channel is
	// closed only when the gateway itself shuts down.
	TransactionUpdates(ctx context.Context) <-chan VerificationResult

	// Finish acknowledges a transaction so the gateway stops redelivering it.
	Finish(ctx context.Context, transactionID string) error

	// LatestTransaction returns the most recent transaction for a product,
	// or nil when the product was never bought.
	LatestTransaction(ctx context.Context, productID string) (*VerificationResult, error)

	// SubscriptionGroupState reports the renewal state of the product's
	// subscription group. Best-effort; ok is false when unavailable.
	SubscriptionGroupState(ctx context.Context, productID string) (state model.RenewalState, ok bool, err error)

	// Pass-through storefront UI triggers.
	PresentCodeRedemption(ctx context.Context) error
	ManageSubscriptions(ctx context.Context) error
	RequestRefund(ctx context.Context, transactionID string) error
}
