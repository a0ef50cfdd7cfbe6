package repository

import (
	"context"
	"errors"
	"time"

	"iap-entitlement-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceStore is the injected persistence handle for consumable balances,
// keyed by "consumable.balance.<product id>".
type BalanceStore interface {
	// Get returns the stored value, or 0 when the key is absent.
	Get(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, value int) error
}

type balanceStoreImpl struct {
	db *gorm.DB
}

func NewBalanceStore(db *gorm.DB) BalanceStore {
	return &balanceStoreImpl{
		db: db,
	}
}

func (r *balanceStoreImpl) Get(ctx context.Context, key string) (int, error) {
	var row model.ConsumableBalance
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return row.Value, nil
}

func (r *balanceStoreImpl) Set(ctx context.Context, key string, value int) error {
	row := model.ConsumableBalance{Key: key, Value: value}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}
