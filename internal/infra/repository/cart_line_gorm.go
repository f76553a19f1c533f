package repository

import (
	"context"
	"errors"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"

	"gorm.io/gorm"
)

type CartLineGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartLineGormRepository(db *gorm.DB) *CartLineGormRepository {
	return &CartLineGormRepository{db: db}
}

// 明細を1行追加（同じ商品でも別の行）
func (r *CartLineGormRepository) Create(ctx context.Context, line model.CartLine) (model.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(&line).Error; err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

func (r *CartLineGormRepository) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Where("id = ?", lineID).
		First(&line).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// ユーザーの明細を追加順で取得
func (r *CartLineGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}

// 配送情報だけ更新
func (r *CartLineGormRepository) UpdateDelivery(ctx context.Context, line model.CartLine) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"address":   line.Address,
			"card_text": line.CardText,
			"signature": line.Signature,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartLineGormRepository) DeleteByID(ctx context.Context, lineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, lineID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザーの明細を全削除（0件でもエラーにしない）
func (r *CartLineGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartLine{}).Error
}

// 明細がそのuserのものかを判定
func (r *CartLineGormRepository) IsOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
