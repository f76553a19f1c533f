package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"
	"flowershop/internal/logging"

	"github.com/shopspring/decimal"
)

// 注文ステータスのキャッシュ（Redisなど）。無くても動く。
type OrderStatusCache interface {
	Get(ctx context.Context, orderID int64) (CachedOrderStatus, bool)
}

type CachedOrderStatus struct {
	UserID int64
	Status model.OrderStatus
}

type OrderUsecase struct {
	tx    repo.TransactionManager
	bus   *OrderEventBus
	cache OrderStatusCache
	clock Clock
}

func NewOrderUsecase(tx repo.TransactionManager, bus *OrderEventBus, cache OrderStatusCache, clock Clock) *OrderUsecase {
	if clock == nil {
		clock = RealClock
	}
	return &OrderUsecase{tx: tx, bus: bus, cache: cache, clock: clock}
}

type OrderProductOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

type OrderOutput struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"user_id"`
	Status      string               `json:"status"`
	StatusLabel string               `json:"status_label"`
	TotalPrice  decimal.Decimal      `json:"total_price"`
	Address     string               `json:"address"`
	CardText    string               `json:"card_text"`
	Signature   string               `json:"signature"`
	CreatedAt   time.Time            `json:"created_at"`
	Items       []OrderProductOutput `json:"items"`
	HasReview   bool                 `json:"has_review"`
}

type OrderStatusOutput struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Label   string `json:"label"`
}

// CreateFromCart はカートの明細1行ごとに注文を1件作り、カートを空にする。
// 商品が削除済みの明細は注文にせず捨てる。イベントはコミット後に流す。
// 配送先が未入力の明細が1つでもあれば400で、何も作らない。
func (u *OrderUsecase) CreateFromCart(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput
	var events []model.OrderEvent

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		outs = nil
		events = nil

		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return errDB()
		}
		if user == nil {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		lines, err := r.CartLines().ListByUserID(ctx, userID)
		if err != nil {
			return errDB()
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		now := u.clock.Now()
		for _, l := range lines {
			p, err := r.Products().FindByID(ctx, l.ProductID)
			if err == repo.ErrNotFound {
				logging.FromCtx(ctx).Warn("skip cart line: product deleted",
					"user_id", userID, "line_id", l.ID, "product_id", l.ProductID)
				continue
			}
			if err != nil {
				return errDB()
			}
			if strings.TrimSpace(l.Address) == "" {
				return NewHTTPError(http.StatusBadRequest, "address required")
			}

			o, err := r.Orders().Create(ctx, model.Order{
				UserID:     userID,
				Status:     model.OrderStatusAccepted,
				TotalPrice: p.Price,
				ChannelID:  user.ChannelID,
				Address:    l.Address,
				CardText:   l.CardText,
				Signature:  l.Signature,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			if err != nil {
				return errDB()
			}

			//スナップショット
			items := []model.OrderProduct{{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				PriceSnapshot:       p.Price,
				CreatedAt:           now,
			}}
			if err := r.OrderProducts().CreateBulk(ctx, o.ID, items); err != nil {
				return errDB()
			}

			outs = append(outs, toOrderOutput(o, items, false))
			events = append(events, newOrderEvent(model.OrderEventCreated, o, items, "", now))
		}

		//明細は全部消す（削除済み商品の行も）
		if err := r.CartLines().DeleteByUserID(ctx, userID); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}

	u.bus.Publish(ctx, events...)

	if outs == nil {
		outs = []OrderOutput{}
	}
	return outs, nil
}

// ListMyOrders は新しい順に limit 件
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if limit < 1 || limit > 50 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, limit)
		if err != nil {
			return errDB()
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			out, err := loadOrderOutput(ctx, r, o)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// GetStatus はキャッシュを先に見て、無ければDBから取る。
func (u *OrderUsecase) GetStatus(ctx context.Context, userID int64, orderID int64) (OrderStatusOutput, error) {
	if userID <= 0 {
		return OrderStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if u.cache != nil {
		if c, ok := u.cache.Get(ctx, orderID); ok {
			if c.UserID != userID {
				return OrderStatusOutput{}, errNotFound()
			}
			return toStatusOutput(orderID, c.Status), nil
		}
	}

	var out OrderStatusOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		out = toStatusOutput(o.ID, o.Status)
		return nil
	})
	if err != nil {
		return OrderStatusOutput{}, err
	}
	return out, nil
}

// 他人の注文は「存在しない扱い」にする
func findOwnedOrder(ctx context.Context, r repo.TxRepos, userID, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, errNotFound()
	}
	if err != nil {
		return model.Order{}, errDB()
	}
	if o.UserID != userID {
		return model.Order{}, errNotFound()
	}
	return o, nil
}

func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	items, err := r.OrderProducts().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	hasReview, err := r.Reviews().ExistsByOrder(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	return toOrderOutput(o, items, hasReview), nil
}

func toStatusOutput(orderID int64, s model.OrderStatus) OrderStatusOutput {
	return OrderStatusOutput{OrderID: orderID, Status: string(s), Label: s.Label()}
}

func toOrderOutput(o model.Order, items []model.OrderProduct, hasReview bool) OrderOutput {
	outItems := make([]OrderProductOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderProductOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.PriceSnapshot,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		StatusLabel: o.Status.Label(),
		TotalPrice:  o.TotalPrice,
		Address:     o.Address,
		CardText:    o.CardText,
		Signature:   o.Signature,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
		HasReview:   hasReview,
	}
}
