package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"flowershop/internal/domain/model"
	repo "flowershop/internal/repository"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	bus   *OrderEventBus
	clock Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, bus *OrderEventBus, clock Clock) *AdminOrderUsecase {
	if clock == nil {
		clock = RealClock
	}
	return &AdminOrderUsecase{tx: tx, bus: bus, clock: clock}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	// trueなら遷移ルールを無視する（監査ログは OVERRIDE_ORDER_STATUS）
	Override bool
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
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

// UpdateStatus はステータスを1段進める。
// 同じステータスなら何もしない（イベントも出さない）。
// 同時更新で負けたら409。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var ev *model.OrderEvent

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ev = nil

		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}

		action := model.AuditActionUpdateOrderStatus
		if in.Override {
			action = model.AuditActionOverrideOrderStatus
		} else if !model.CanTransition(o.Status, newStatus) {
			if o.Status.Terminal() {
				return NewHTTPError(http.StatusBadRequest, "cannot change delivered order")
			}
			return NewHTTPError(http.StatusBadRequest, "invalid transition")
		}

		// ステータス更新（version一致のときだけ）
		now := u.clock.Now()
		oldStatus := o.Status
		ok, err := r.Orders().UpdateStatusIf(ctx, orderID, o.Version, newStatus, now)
		if err != nil {
			return errDB()
		}
		if !ok {
			return NewHTTPError(http.StatusConflict, "order was modified concurrently")
		}

		// 監査ログ
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       action,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   statusJSON(oldStatus),
			AfterJSON:    statusJSON(newStatus),
			CreatedAt:    now,
		}); err != nil {
			return errDB()
		}

		items, err := r.OrderProducts().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}

		o.Status = newStatus
		o.Version++
		o.UpdatedAt = now
		e := newOrderEvent(model.OrderEventStatusChanged, o, items, oldStatus, now)
		ev = &e
		return nil
	})
	if err != nil {
		return err
	}

	// コミット後に通知
	if ev != nil {
		u.bus.Publish(ctx, *ev)
	}
	return nil
}

// History は注文のステータス変更履歴（新しい順）
func (u *AdminOrderUsecase) History(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var logs []model.AuditLog

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return errNotFound()
			}
			return errDB()
		}

		var err error
		logs, err = r.AuditLogs().ListByResource(ctx, model.AuditResourceOrder, orderID, 100)
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return []model.AuditLog{}, err
	}
	return logs, nil
}

func statusJSON(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]string{"status": string(s)})
	return string(b)
}
