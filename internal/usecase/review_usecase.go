package usecase

import (
	"context"
	"net/http"
	"strings"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"
)

type ReviewUsecase struct {
	tx repo.TransactionManager
}

func NewReviewUsecase(tx repo.TransactionManager) *ReviewUsecase {
	return &ReviewUsecase{tx: tx}
}

type SubmitReviewInput struct {
	Rating int
	Text   string
}

// Submit はレビューを1件作る。
// 既に同じ (user, order) のレビューがあれば409で、既存は変更しない。
// レビュー対象の商品は注文の最初の商品。
func (u *ReviewUsecase) Submit(ctx context.Context, userID int64, orderID int64, in SubmitReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !model.ValidRating(in.Rating) {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	var created model.Review

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}

		exists, err := r.Reviews().ExistsByUserAndOrder(ctx, userID, o.ID)
		if err != nil {
			return errDB()
		}
		if exists {
			return NewHTTPError(http.StatusConflict, "review already exists")
		}

		items, err := r.OrderProducts().ListByOrderID(ctx, o.ID)
		if err != nil {
			return errDB()
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, "order has no products")
		}

		created, err = r.Reviews().Create(ctx, model.Review{
			UserID:    userID,
			OrderID:   o.ID,
			ProductID: items[0].ProductID,
			Text:      strings.TrimSpace(in.Text),
			Rating:    in.Rating,
		})
		// 同時に2件来た場合は一意制約で弾かれる
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "review already exists")
		}
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	return created, nil
}

// Exists は注文にレビューがあるか
func (u *ReviewUsecase) Exists(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		exists, err = r.Reviews().ExistsByOrder(ctx, orderID)
		if err != nil {
			return errDB()
		}
		return nil
	})
	return exists, err
}

func (u *ReviewUsecase) ListForProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	if productID <= 0 {
		return []model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var reviews []model.Review
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if err == repo.ErrNotFound {
				return errNotFound()
			}
			return errDB()
		}
		var err error
		reviews, err = r.Reviews().ListByProductID(ctx, productID, 50)
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return []model.Review{}, err
	}
	return reviews, nil
}
