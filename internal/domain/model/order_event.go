package model

import "time"

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// 注文の作成・ステータス変更イベント。
// コミット後の注文スナップショットを持つ。
type OrderEvent struct {
	ID        string         `json:"id"`
	Type      OrderEventType `json:"type"`
	Order     Order          `json:"order"`
	Products  []OrderProduct `json:"products"`
	OldStatus OrderStatus    `json:"old_status,omitempty"`
	NewStatus OrderStatus    `json:"new_status"`
	At        time.Time      `json:"at"`
}

// FirstProductは注文内で最初の商品。無ければfalse。
func (e OrderEvent) FirstProduct() (OrderProduct, bool) {
	if len(e.Products) == 0 {
		return OrderProduct{}, false
	}
	return e.Products[0], true
}
