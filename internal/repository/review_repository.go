package repository

import (
	"context"

	"flowershop/internal/domain/model"
)

type ReviewRepository interface {
	// 同じ (user_id, order_id) が既にあれば ErrDuplicate
	Create(ctx context.Context, review model.Review) (model.Review, error)
	ExistsByUserAndOrder(ctx context.Context, userID int64, orderID int64) (bool, error)
	ExistsByOrder(ctx context.Context, orderID int64) (bool, error)
	// 新しい順
	ListByProductID(ctx context.Context, productID int64, limit int) ([]model.Review, error)
}
