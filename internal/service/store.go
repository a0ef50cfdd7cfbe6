package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"iap-entitlement-service/internal/client"
	"iap-entitlement-service/internal/model"
)

// nonRenewableTerm is the client-side lifetime of a fixed-term product. The
// storefront does not expire these; every reconciliation pass re-evaluates
// the cutoff against the current time.
const nonRenewableTerm = 1 // years

// StoreService reconciles the storefront's transaction stream and product
// catalog into the local view: category-sorted catalog, purchased sets,
// pending purchases, purchase status and consumable balances.
//
// mu guards every externally observable field and is never held across a
// StoreClient call. The ledger serializes separately (see Ledger).
type StoreService struct {
	client client.StoreClient
	ledger *Ledger
	logger *slog.Logger
	events notifier

	now func() time.Time

	mu sync.Mutex

	// catalog, by ownership category, ascending by price
	nonConsumables []*model.Product
	consumables    []*model.Product
	nonRenewables  []*model.Product
	autoRenewables []*model.Product

	// purchased sets, fully replaced on every reconciliation pass
	purchasedNonConsumables []*model.Product
	purchasedNonRenewables  []*model.Product
	purchasedAutoRenewables []*model.Product

	groupState    model.RenewalState
	hasGroupState bool

	pending map[string]struct{}
	status  model.PurchaseStatus
}

func NewStoreService(storeClient client.StoreClient, ledger *Ledger, logger *slog.Logger) *StoreService {
	return &StoreService{
		client:  storeClient,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]struct{}),
		status:  model.PurchaseStatus{State: model.PurchaseStateUnknown},
	}
}

// verifyTransaction unwraps a gateway verification envelope. On an
// unverified envelope the gateway's original error comes back untouched so
// its diagnostic detail survives.
func verifyTransaction(vr client.VerificationResult) (*model.TransactionRecord, error) {
	if vr.Err != nil {
		return nil, vr.Err
	}
	return vr.Transaction, nil
}

// LoadProducts fetches descriptors for the given ids and replaces the
// catalog with the result, classified by category and sorted ascending by
// price. Unrecognized categories are dropped. On a fetch error the previous
// catalog stays as it was.
func (s *StoreService) LoadProducts(ctx context.Context, ids []string) error {
	products, err := s.client.FetchProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}

	var nonConsumables, consumables, nonRenewables, autoRenewables []*model.Product
	for _, p := range products {
		switch p.Type {
		case model.ProductTypeNonConsumable:
			nonConsumables = append(nonConsumables, p)
		case model.ProductTypeConsumable:
			consumables = append(consumables, p)
		case model.ProductTypeNonRenewable:
			nonRenewables = append(nonRenewables, p)
		case model.ProductTypeAutoRenewable:
			autoRenewables = append(autoRenewables, p)
		}
	}

	s.mu.Lock()
	s.nonConsumables = sortByPrice(nonConsumables)
	s.consumables = sortByPrice(consumables)
	s.nonRenewables = sortByPrice(nonRenewables)
	s.autoRenewables = sortByPrice(autoRenewables)
	s.mu.Unlock()

	s.events.publish(ChangeCatalog)
	s.logger.Info("store products loaded", "count", len(products))
	return nil
}

// Reconcile re-derives the three purchased sets from the gateway's current
// entitlement feed. Entries that fail verification are skipped, never
// aborting the pass. At the end all three sets are replaced in one step, so
// revoked or expired entitlements disappear instead of accumulating.
func (s *StoreService) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	nonConsumables := s.nonConsumables
	nonRenewables := s.nonRenewables
	autoRenewables := s.autoRenewables
	s.mu.Unlock()

	var purchasedNonConsumables, purchasedNonRenewables, purchasedAutoRenewables []*model.Product

	err := s.client.CurrentEntitlements(ctx, func(vr client.VerificationResult) error {
		txn, err := verifyTransaction(vr)
		if err != nil {
			s.logger.Warn("entitlement verification failed", "error", err)
			return nil
		}

		switch txn.ProductType {
		case model.ProductTypeNonConsumable:
			if p := findProduct(nonConsumables, txn.ProductID); p != nil {
				purchasedNonConsumables = append(purchasedNonConsumables, p)
			}

		case model.ProductTypeNonRenewable:
			if p := findProduct(nonRenewables, txn.ProductID); p != nil {
				expiry := txn.PurchaseDate.AddDate(nonRenewableTerm, 0, 0)
				if s.now().Before(expiry) {
					purchasedNonRenewables = append(purchasedNonRenewables, p)
				}
			}

		case model.ProductTypeAutoRenewable:
			if p := findProduct(autoRenewables, txn.ProductID); p != nil {
				purchasedAutoRenewables = append(purchasedAutoRenewables, p)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate current entitlements: %w", err)
	}

	// Group renewal state is strictly best-effort: errors and absence both
	// just clear it.
	var groupState model.RenewalState
	var hasGroupState bool
	if len(autoRenewables) > 0 {
		if state, ok, err := s.client.SubscriptionGroupState(ctx, autoRenewables[0].ID); err == nil && ok {
			groupState, hasGroupState = state, true
		}
	}

	s.mu.Lock()
	s.purchasedNonConsumables = purchasedNonConsumables
	s.purchasedNonRenewables = purchasedNonRenewables
	s.purchasedAutoRenewables = purchasedAutoRenewables
	s.groupState = groupState
	s.hasGroupState = hasGroupState
	s.mu.Unlock()

	s.events.publish(ChangeEntitlements)
	return nil
}

// Products returns the catalog slice for a category, price-ascending.
func (s *StoreService) Products(category model.ProductType) []*model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case model.ProductTypeNonConsumable:
		return copyProducts(s.nonConsumables)
	case model.ProductTypeConsumable:
		return copyProducts(s.consumables)
	case model.ProductTypeNonRenewable:
		return copyProducts(s.nonRenewables)
	case model.ProductTypeAutoRenewable:
		return copyProducts(s.autoRenewables)
	}
	return nil
}

// Purchased returns the current purchased set for a category. Consumables
// have no purchased set; use the ledger.
func (s *StoreService) Purchased(category model.ProductType) []*model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case model.ProductTypeNonConsumable:
		return copyProducts(s.purchasedNonConsumables)
	case model.ProductTypeNonRenewable:
		return copyProducts(s.purchasedNonRenewables)
	case model.ProductTypeAutoRenewable:
		return copyProducts(s.purchasedAutoRenewables)
	}
	return nil
}

// SubscriptionGroupState reports the last observed renewal state of the
// auto-renewable subscription group, if any.
func (s *StoreService) SubscriptionGroupState() (model.RenewalState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupState, s.hasGroupState
}

// Pending returns the product ids of gateway-acknowledged but unresolved
// purchases.
func (s *StoreService) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Status returns the status of the most recent purchase attempt.
func (s *StoreService) Status() model.PurchaseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ledger exposes the consumable ledger.
func (s *StoreService) Ledger() *Ledger {
	return s.ledger
}

// Subscribe returns a channel of state-change notifications.
func (s *StoreService) Subscribe() <-chan ChangeKind {
	return s.events.subscribe()
}

func (s *StoreService) setStatus(status model.PurchaseStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.events.publish(ChangeStatus)
	s.logger.Info("purchase status changed",
		"state", status.State, "product_id", status.ProductID, "reason", status.Reason)
}

func (s *StoreService) addPending(productID string) {
	s.mu.Lock()
	s.pending[productID] = struct{}{}
	s.mu.Unlock()
	s.events.publish(ChangePending)
}

func (s *StoreService) removePending(productID string) {
	s.mu.Lock()
	_, ok := s.pending[productID]
	delete(s.pending, productID)
	s.mu.Unlock()
	if ok {
		s.events.publish(ChangePending)
	}
}

func sortByPrice(products []*model.Product) []*model.Product {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Price < products[j].Price
	})
	return products
}

func findProduct(products []*model.Product, id string) *model.Product {
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func copyProducts(products []*model.Product) []*model.Product {
	out := make([]*model.Product, len(products))
	copy(out, products)
	return out
}
