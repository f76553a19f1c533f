package repository

import (
	"context"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"

	"gorm.io/gorm"
)

const maxAuditRows = 200

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// ステータス変更と同じトランザクションで書く
func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *auditLogGormRepository) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > maxAuditRows {
		limit = maxAuditRows
	}

	logs := []model.AuditLog{}
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return []model.AuditLog{}, err
	}
	return logs, nil
}
