package service

import (
	"context"

	"iap-entitlement-service/internal/client"
	"iap-entitlement-service/internal/model"
)

// StartListener launches the background consumer of the gateway's
// transaction update feed (renewals, refunds, restores, out-of-band
// purchases). It runs until ctx is cancelled or the gateway closes the feed;
// the returned channel closes when the loop has fully exited. Start it once
// at bootstrap.
//
// Every per-event error is logged and swallowed; a single bad event must
// never terminate the loop.
func (s *StoreService) StartListener(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	updates := s.client.TransactionUpdates(ctx)

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case vr, ok := <-updates:
				if !ok {
					s.logger.Info("transaction update feed closed")
					return
				}
				s.handleUpdate(ctx, vr)
			}
		}
	}()

	return done
}

// handleUpdate folds one out-of-band transaction event into local state:
// clear pending, credit consumables, re-derive entitlements, acknowledge.
func (s *StoreService) handleUpdate(ctx context.Context, vr client.VerificationResult) {
	txn, err := verifyTransaction(vr)
	if err != nil {
		s.logger.Warn("transaction update verification failed", "error", err)
		return
	}

	s.removePending(txn.ProductID)

	if txn.ProductType == model.ProductTypeConsumable {
		if _, err := s.ledger.Add(ctx, txn.ProductID, 1); err != nil {
			s.logger.Warn("ledger credit failed", "product_id", txn.ProductID, "error", err)
		} else {
			s.events.publish(ChangeBalances)
		}
	}

	if err := s.Reconcile(ctx); err != nil {
		s.logger.Warn("reconcile after update failed", "error", err)
	}

	if err := s.client.Finish(ctx, txn.TransactionID); err != nil {
		s.logger.Warn("finish transaction failed", "transaction_id", txn.TransactionID, "error", err)
	}
}
