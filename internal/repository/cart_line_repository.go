package repository

import (
	"context"

	"flowershop/internal/domain/model"
)

type CartLineRepository interface {
	Create(ctx context.Context, line model.CartLine) (model.CartLine, error)
	FindByID(ctx context.Context, lineID int64) (model.CartLine, error)
	// 追加順（id asc）
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	// 配送情報（address/card_text/signature）だけ更新
	UpdateDelivery(ctx context.Context, line model.CartLine) error
	DeleteByID(ctx context.Context, lineID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	IsOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error)
}
