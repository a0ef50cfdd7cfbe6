package handler

import (
	"net/http"

	"iap-entitlement-service/internal/dto"
	"iap-entitlement-service/internal/model"
	"iap-entitlement-service/internal/service"

	"github.com/labstack/echo/v4"
)

type StoreHandler struct {
	storeService *service.StoreService
}

func NewStoreHandler(storeService *service.StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
	}
}

func (h *StoreHandler) GetProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, &dto.ProductsResponse{
		NonConsumables: h.storeService.Products(model.ProductTypeNonConsumable),
		Consumables:    h.storeService.Products(model.ProductTypeConsumable),
		NonRenewables:  h.storeService.Products(model.ProductTypeNonRenewable),
		AutoRenewables: h.storeService.Products(model.ProductTypeAutoRenewable),
	})
}

func (h *StoreHandler) GetEntitlements(c echo.Context) error {
	resp := &dto.EntitlementsResponse{
		NonConsumables: productIDs(h.storeService.Purchased(model.ProductTypeNonConsumable)),
		NonRenewables:  productIDs(h.storeService.Purchased(model.ProductTypeNonRenewable)),
		AutoRenewables: productIDs(h.storeService.Purchased(model.ProductTypeAutoRenewable)),
	}
	if state, ok := h.storeService.SubscriptionGroupState(); ok {
		resp.SubscriptionGroupState = string(state)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) GetBalances(c echo.Context) error {
	return c.JSON(http.StatusOK, h.storeService.Ledger().Snapshot())
}

func (h *StoreHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, &dto.StatusResponse{
		Status:  h.storeService.Status(),
		Pending: h.storeService.Pending(),
	})
}

func (h *StoreHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product_id")
	}

	h.storeService.Purchase(ctx, req.ProductID)

	return c.JSON(http.StatusOK, &dto.StatusResponse{
		Status:  h.storeService.Status(),
		Pending: h.storeService.Pending(),
	})
}

func (h *StoreHandler) Consume(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ConsumeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product_id")
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}

	ledger := h.storeService.Ledger()
	consumed, err := ledger.Consume(ctx, req.ProductID, req.Amount)
	if err != nil {
		// persistence failed; the resulting state is unknown to the caller
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ledger unavailable, recheck balance")
	}

	return c.JSON(http.StatusOK, &dto.ConsumeResponse{
		Consumed: consumed,
		Balance:  ledger.Balance(req.ProductID),
	})
}

func (h *StoreHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing product_id")
	}

	h.storeService.RequestRefund(ctx, req.ProductID)

	return c.JSON(http.StatusOK, h.storeService.Status())
}

func (h *StoreHandler) RedeemCode(c echo.Context) error {
	h.storeService.PresentCodeRedemption(c.Request().Context())
	return c.JSON(http.StatusOK, h.storeService.Status())
}

func (h *StoreHandler) ManageSubscriptions(c echo.Context) error {
	h.storeService.ManageSubscriptions(c.Request().Context())
	return c.JSON(http.StatusOK, h.storeService.Status())
}

func productIDs(products []*model.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
