package repository

import (
	"context"
	"errors"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

// ux_reviews_user_order に当たったら ErrDuplicate
// （gorm.Config.TranslateError が有効な前提）
func (r *ReviewGormRepository) Create(ctx context.Context, review model.Review) (model.Review, error) {
	err := r.db.WithContext(ctx).Create(&review).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Review{}, repo.ErrDuplicate
	}
	if err != nil {
		return model.Review{}, err
	}
	return review, nil
}

func (r *ReviewGormRepository) ExistsByUserAndOrder(ctx context.Context, userID int64, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewGormRepository) ExistsByOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return []model.Review{}, err
	}
	return reviews, nil
}
