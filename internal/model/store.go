package model

import (
	"errors"
	"time"
)

// ProductType classifies how ownership behaves after a purchase.
type ProductType string

const (
	ProductTypeNonConsumable ProductType = "NON_CONSUMABLE" // owned forever once bought
	ProductTypeConsumable    ProductType = "CONSUMABLE"     // spent on use, tracked by the local ledger
	ProductTypeNonRenewable  ProductType = "NON_RENEWABLE"  // fixed term, expires client-side
	ProductTypeAutoRenewable ProductType = "AUTO_RENEWABLE" // subscription, renewed by the storefront
)

type Product struct {
	ID                  string      `json:"id"` // product sku
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	Price               int64       `json:"price"` // minor units
	Currency            string      `json:"currency"`
	Type                ProductType `json:"type"`
	SubscriptionGroupID string      `json:"subscription_group_id,omitempty"` // auto-renewables only
}

// TransactionRecord is a verified storefront transaction. The core never
// constructs one; it only classifies records the gateway hands over.
type TransactionRecord struct {
	TransactionID string
	ProductID     string
	ProductType   ProductType
	PurchaseDate  time.Time
}

// RenewalState is the storefront's renewal status for a subscription group.
type RenewalState string

const (
	RenewalStateSubscribed     RenewalState = "SUBSCRIBED"
	RenewalStateExpired        RenewalState = "EXPIRED"
	RenewalStateInBillingRetry RenewalState = "IN_BILLING_RETRY"
	RenewalStateInGracePeriod  RenewalState = "IN_GRACE_PERIOD"
	RenewalStateRevoked        RenewalState = "REVOKED"
)

type PurchaseState string

const (
	PurchaseStateUnknown    PurchaseState = "UNKNOWN"
	PurchaseStateAttempting PurchaseState = "ATTEMPTING"
	PurchaseStateSuccess    PurchaseState = "SUCCESS"
	PurchaseStatePending    PurchaseState = "PENDING"
	PurchaseStateCancelled  PurchaseState = "CANCELLED"
	PurchaseStateFailed     PurchaseState = "FAILED"
)

// PurchaseStatus is the observable outcome of the most recent purchase
// attempt. ProductID is set on SUCCESS, Reason on FAILED.
type PurchaseStatus struct {
	State     PurchaseState `json:"state"`
	ProductID string        `json:"product_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

var (
	ErrUnknownOutcome = errors.New("unknown purchase outcome")
	ErrNoTransaction  = errors.New("no transaction found for product")
	ErrProductUnknown = errors.New("product not in catalog")
)
