package repository

import (
	"context"
	"time"

	"flowershop/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)

	// version が一致するときだけ status を更新して version を+1、updated_at は now。
	// 更新できなければ false（他の更新が先に入った）。
	UpdateStatusIf(ctx context.Context, orderID int64, version int, status model.OrderStatus, now time.Time) (bool, error)

	// ユーザーの全注文のchannel_idを埋める（/connect の後追い）
	SetChannelIDByUserID(ctx context.Context, userID int64, channelID *string) (int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	// レポート用。created_at <= until を id 昇順で全件。
	ListCreatedUntil(ctx context.Context, until time.Time) ([]model.Order, error)
}
