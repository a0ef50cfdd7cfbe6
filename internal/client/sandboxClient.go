package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"iap-entitlement-service/internal/model"

	"github.com/google/uuid"
)

// SandboxClient is an in-process storefront used for local development and
// tests. Every transaction it produces comes back pre-verified; call
// FailVerification to make a product yield unverified envelopes instead.
type SandboxClient struct {
	mu           sync.Mutex
	catalog      []*model.Product
	entitlements []*model.TransactionRecord // currently valid, non-consumable
	latest       map[string]*model.TransactionRecord
	finished     map[string]bool
	pending      map[string]struct{} // products that resolve out of band
	verifyErrs   map[string]error

	updates chan VerificationResult
}

func NewSandboxClient() *SandboxClient {
	return &SandboxClient{
		catalog: []*model.Product{
			{ID: "nonconsumable.lifetime", Name: "Lifetime Unlock", Description: "Unlock everything forever", Price: 2999, Currency: "USD", Type: model.ProductTypeNonConsumable},
			{ID: "consumable.week", Name: "One Week Credit", Description: "Seven days of credit, spent on use", Price: 199, Currency: "USD", Type: model.ProductTypeConsumable},
			{ID: "subscription.yearly", Name: "Yearly Subscription", Description: "Auto-renewing yearly plan", Price: 3999, Currency: "USD", Type: model.ProductTypeAutoRenewable, SubscriptionGroupID: "premium"},
			{ID: "nonrenewable.year", Name: "One Year Pass", Description: "Twelve months of access, no renewal", Price: 1999, Currency: "USD", Type: model.ProductTypeNonRenewable},
		},
		latest:     make(map[string]*model.TransactionRecord),
		finished:   make(map[string]bool),
		pending:    make(map[string]struct{}),
		verifyErrs: make(map[string]error),
		updates:    make(chan VerificationResult, 16),
	}
}

func (c *SandboxClient) FetchProducts(ctx context.Context, ids []string) ([]*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var products []*model.Product
	for _, p := range c.catalog {
		if want[p.ID] {
			products = append(products, p)
		}
	}
	return products, nil
}

func (c *SandboxClient) Purchase(ctx context.Context, productID string) (*PurchaseOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product := c.findProduct(productID)
	if product == nil {
		return nil, fmt.Errorf("sandbox: %w: %s", model.ErrProductUnknown, productID)
	}

	if _, ok := c.pending[productID]; ok {
		return &PurchaseOutcome{Kind: OutcomePending}, nil
	}

	return &PurchaseOutcome{
		Kind:         OutcomeSuccess,
		Verification: c.record(product),
	}, nil
}

func (c *SandboxClient) CurrentEntitlements(ctx context.Context, fn func(VerificationResult) error) error {
	c.mu.Lock()
	snapshot := make([]*model.TransactionRecord, len(c.entitlements))
	copy(snapshot, c.entitlements)
	c.mu.Unlock()

	for _, txn := range snapshot {
		if err := fn(VerificationResult{Transaction: txn}); err != nil {
			return err
		}
	}
	return nil
}

func (c *SandboxClient) TransactionUpdates(ctx context.Context) <-chan VerificationResult {
	return c.updates
}

func (c *SandboxClient) Finish(ctx context.Context, transactionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished[transactionID] = true
	return nil
}

func (c *SandboxClient) LatestTransaction(ctx context.Context, productID string) (*VerificationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn, ok := c.latest[productID]
	if !ok {
		return nil, nil
	}
	if err := c.verifyErrs[productID]; err != nil {
		return &VerificationResult{Err: err}, nil
	}
	return &VerificationResult{Transaction: txn}, nil
}

func (c *SandboxClient) SubscriptionGroupState(ctx context.Context, productID string) (model.RenewalState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, txn := range c.entitlements {
		if txn.ProductID == productID && txn.ProductType == model.ProductTypeAutoRenewable {
			return model.RenewalStateSubscribed, true, nil
		}
	}
	return "", false, nil
}

func (c *SandboxClient) PresentCodeRedemption(ctx context.Context) error { return nil }

func (c *SandboxClient) ManageSubscriptions(ctx context.Context) error { return nil }

func (c *SandboxClient) RequestRefund(ctx context.Context, transactionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, txn := range c.entitlements {
		if txn.TransactionID == transactionID {
			c.entitlements = append(c.entitlements[:i], c.entitlements[i+1:]...)
			return nil
		}
	}
	return nil
}

// MarkPending makes future purchases of the product come back pending, as if
// awaiting parental approval. Resolve it with ResolvePending.
func (c *SandboxClient) MarkPending(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[productID] = struct{}{}
}

// ResolvePending approves an earlier pending purchase and delivers the
// resulting transaction on the updates feed.
func (c *SandboxClient) ResolvePending(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	product := c.findProduct(productID)
	if product == nil {
		return fmt.Errorf("sandbox: %w: %s", model.ErrProductUnknown, productID)
	}
	delete(c.pending, productID)
	c.updates <- c.record(product)
	return nil
}

// FailVerification makes every envelope for the product carry err instead of
// a transaction.
func (c *SandboxClient) FailVerification(productID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyErrs[productID] = err
}

// Finished reports whether a transaction has been acknowledged.
func (c *SandboxClient) Finished(transactionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished[transactionID]
}

func (c *SandboxClient) findProduct(productID string) *model.Product {
	for _, p := range c.catalog {
		if p.ID == productID {
			return p
		}
	}
	return nil
}

// record creates a transaction for the product, tracks it as the product's
// latest, and registers it as a current entitlement unless it is consumable.
// Caller holds c.mu.
func (c *SandboxClient) record(product *model.Product) VerificationResult {
	txn := &model.TransactionRecord{
		TransactionID: uuid.NewString(),
		ProductID:     product.ID,
		ProductType:   product.Type,
		PurchaseDate:  time.Now(),
	}
	c.latest[product.ID] = txn
	if product.Type != model.ProductTypeConsumable {
		c.entitlements = append(c.entitlements, txn)
	}
	if err := c.verifyErrs[product.ID]; err != nil {
		return VerificationResult{Err: err}
	}
	return VerificationResult{Transaction: txn}
}

var _ StoreClient = (*SandboxClient)(nil)
