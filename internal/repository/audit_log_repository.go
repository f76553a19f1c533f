package repository

import (
	"context"

	"flowershop/internal/domain/model"
)

// 管理者操作の記録。
// 注文のステータス変更と商品の変更・削除を1操作1行で残す。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	// 対象（注文・商品）1件分の履歴を新しい順に limit 件
	ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error)
}
