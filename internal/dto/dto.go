package dto

import "iap-entitlement-service/internal/model"

type PurchaseRequest struct {
	ProductID string `json:"product_id"`
}

type ConsumeRequest struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type ConsumeResponse struct {
	Consumed bool `json:"consumed"`
	Balance  int  `json:"balance"`
}

type RefundRequest struct {
	ProductID string `json:"product_id"`
}

type ProductsResponse struct {
	NonConsumables []*model.Product `json:"non_consumables"`
	Consumables    []*model.Product `json:"consumables"`
	NonRenewables  []*model.Product `json:"non_renewables"`
	AutoRenewables []*model.Product `json:"auto_renewables"`
}

type EntitlementsResponse struct {
	NonConsumables         []string `json:"non_consumables"`
	NonRenewables          []string `json:"non_renewables"`
	AutoRenewables         []string `json:"auto_renewables"`
	SubscriptionGroupState string   `json:"subscription_group_state,omitempty"`
}

type StatusResponse struct {
	Status  model.PurchaseStatus `json:"status"`
	Pending []string             `json:"pending"`
}
