package usecase

import (
	"context"
	"net/http"
	"strings"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"
	"flowershop/internal/logging"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// 1回の追加 = 1行。同じ商品でもまとめない。
type CartUsecase struct {
	lineRepo    repo.CartLineRepository
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
}

func NewCartUsecase(
	lineRepo repo.CartLineRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
) *CartUsecase {
	return &CartUsecase{
		lineRepo:    lineRepo,
		productRepo: productRepo,
		tx:          tx,
	}
}

// price は商品の現在価格。
type CartLineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Address   string          `json:"address"`
	CardText  string          `json:"card_text"`
	Signature string          `json:"signature"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type DeliveryDetailsInput struct {
	Address   string
	CardText  string
	Signature string
	// チェックアウト確定時はtrue（住所必須）
	Confirm bool
}

type LineDeliveryInput struct {
	LineID int64
	DeliveryDetailsInput
}

// GetCart はカート取得（空なら空で返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart は明細を1行追加（配送情報は空）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	// 商品チェック（削除済みも404）
	_, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return CartResponse{}, errNotFound()
	}
	if err != nil {
		return CartResponse{}, errDB()
	}

	if _, err := u.lineRepo.Create(ctx, model.CartLine{
		UserID:    userID,
		ProductID: productID,
	}); err != nil {
		return CartResponse{}, errDB()
	}

	return u.buildCartResponse(ctx, userID)
}

// SetDeliveryDetails は明細の配送情報を更新（所有チェックあり）。
func (u *CartUsecase) SetDeliveryDetails(ctx context.Context, userID int64, lineID int64, in DeliveryDetailsInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if lineID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := validateDelivery(in); err != nil {
		return CartResponse{}, err
	}

	if err := setDelivery(ctx, u.lineRepo, userID, lineID, in); err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, userID)
}

// ConfirmCheckout は全明細の配送情報をまとめて確定する（全部成功 or 全部失敗）。
func (u *CartUsecase) ConfirmCheckout(ctx context.Context, userID int64, lines []LineDeliveryInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(lines) == 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	for _, l := range lines {
		if l.LineID <= 0 {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		l.Confirm = true
		if err := validateDelivery(l.DeliveryDetailsInput); err != nil {
			return CartResponse{}, err
		}
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, l := range lines {
			l.Confirm = true
			if err := setDelivery(ctx, r.CartLines(), userID, l.LineID, l.DeliveryDetailsInput); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) DeleteCartLine(ctx context.Context, userID int64, lineID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if lineID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.lineRepo.IsOwnedByUser(ctx, lineID, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	if !owned {
		return CartResponse{}, errNotFound()
	}

	if err := u.lineRepo.DeleteByID(ctx, lineID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, errNotFound()
		}
		return CartResponse{}, errDB()
	}

	return u.buildCartResponse(ctx, userID)
}

func validateDelivery(in DeliveryDetailsInput) error {
	if in.Confirm && strings.TrimSpace(in.Address) == "" {
		return NewHTTPError(http.StatusBadRequest, "address required")
	}
	if len(in.Signature) > 255 {
		return NewHTTPError(http.StatusBadRequest, "signature too long")
	}
	return nil
}

// 他人の明細は「存在しない扱い」
func setDelivery(ctx context.Context, lines repo.CartLineRepository, userID, lineID int64, in DeliveryDetailsInput) error {
	owned, err := lines.IsOwnedByUser(ctx, lineID, userID)
	if err != nil {
		return errDB()
	}
	if !owned {
		return errNotFound()
	}

	err = lines.UpdateDelivery(ctx, model.CartLine{
		ID:        lineID,
		Address:   strings.TrimSpace(in.Address),
		CardText:  strings.TrimSpace(in.CardText),
		Signature: strings.TrimSpace(in.Signature),
	})
	if err == repo.ErrNotFound {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	return nil
}

// userIDの明細をまとめてCartResponseを作る。
// 商品が削除済みの明細は表示しない。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.lineRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}

	items := make([]CartLineResponse, 0, len(lines))
	total := decimal.Zero

	for _, l := range lines {
		p, err := u.productRepo.FindByID(ctx, l.ProductID)
		if err == repo.ErrNotFound {
			logging.FromCtx(ctx).Warn("cart line product missing", "line_id", l.ID, "product_id", l.ProductID)
			continue
		}
		if err != nil {
			return CartResponse{}, errDB()
		}

		items = append(items, CartLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Address:   l.Address,
			CardText:  l.CardText,
			Signature: l.Signature,
		})
		total = total.Add(p.Price)
	}

	return CartResponse{Items: items, Total: total}, nil
}
