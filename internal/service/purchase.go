package service

import (
	"context"

	"iap-entitlement-service/internal/client"
	"iap-entitlement-service/internal/model"
)

// Purchase drives one purchase attempt through the gateway. The result is
// published through Status, Pending, the entitlement sets and the ledger;
// there is no other return channel.
//
// A transaction is finished (acknowledged) only after its verification
// succeeds and its effects are applied locally. A transaction that fails
// verification is left unfinished on purpose: the gateway keeps it around
// for future verification or restore.
func (s *StoreService) Purchase(ctx context.Context, productID string) {
	s.setStatus(model.PurchaseStatus{State: model.PurchaseStateAttempting})

	outcome, err := s.client.Purchase(ctx, productID)
	if err != nil {
		s.removePending(productID)
		s.setStatus(failedStatus(err))
		return
	}

	switch outcome.Kind {
	case client.OutcomeSuccess:
		txn, err := verifyTransaction(outcome.Verification)
		if err != nil {
			s.removePending(productID)
			s.setStatus(failedStatus(err))
			return
		}

		s.removePending(productID)

		if txn.ProductType == model.ProductTypeConsumable {
			// Consumables never show up in entitlements; the local ledger is
			// the only record.
			if _, err := s.ledger.Add(ctx, txn.ProductID, 1); err != nil {
				s.logger.Warn("ledger credit failed", "product_id", txn.ProductID, "error", err)
			} else {
				s.events.publish(ChangeBalances)
			}
		}

		// Refresh purchased sets before the caller can observe Success.
		if err := s.Reconcile(ctx); err != nil {
			s.logger.Warn("reconcile after purchase failed", "error", err)
		}

		if err := s.client.Finish(ctx, txn.TransactionID); err != nil {
			s.logger.Warn("finish transaction failed", "transaction_id", txn.TransactionID, "error", err)
		}

		s.setStatus(model.PurchaseStatus{State: model.PurchaseStateSuccess, ProductID: txn.ProductID})

	case client.OutcomePending:
		// Ownership is not established yet; no ledger or entitlement change.
		s.addPending(productID)
		s.setStatus(model.PurchaseStatus{State: model.PurchaseStatePending})

	case client.OutcomeUserCancelled:
		s.removePending(productID)
		s.setStatus(model.PurchaseStatus{State: model.PurchaseStateCancelled})

	default:
		s.removePending(productID)
		s.setStatus(failedStatus(model.ErrUnknownOutcome))
	}
}

// RequestRefund asks the gateway to begin a refund for the latest
// transaction of a product. The storefront decides approval; the eventual
// revocation arrives on the update feed and reconciles there.
func (s *StoreService) RequestRefund(ctx context.Context, productID string) {
	latest, err := s.client.LatestTransaction(ctx, productID)
	if err != nil {
		s.setStatus(failedStatus(err))
		return
	}
	if latest == nil {
		s.setStatus(failedStatus(model.ErrNoTransaction))
		return
	}

	txn, err := verifyTransaction(*latest)
	if err != nil {
		s.setStatus(failedStatus(err))
		return
	}

	if err := s.client.RequestRefund(ctx, txn.TransactionID); err != nil {
		s.setStatus(failedStatus(err))
	}
}

// PresentCodeRedemption opens the storefront's offer-code redemption flow.
func (s *StoreService) PresentCodeRedemption(ctx context.Context) {
	if err := s.client.PresentCodeRedemption(ctx); err != nil {
		s.setStatus(failedStatus(err))
	}
}

// ManageSubscriptions opens the storefront's subscription management flow.
func (s *StoreService) ManageSubscriptions(ctx context.Context) {
	if err := s.client.ManageSubscriptions(ctx); err != nil {
		s.setStatus(failedStatus(err))
	}
}

func failedStatus(err error) model.PurchaseStatus {
	return model.PurchaseStatus{State: model.PurchaseStateFailed, Reason: err.Error()}
}
