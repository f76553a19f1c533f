package repository

import (
	"context"

	"flowershop/internal/domain/model"
)

type OrderProductRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderProduct) error
	// id 昇順
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderProduct, error)
	ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderProduct, error)
}
