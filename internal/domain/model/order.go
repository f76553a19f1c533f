package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusAssembling OrderStatus = "assembling"
	OrderStatusOnTheWay   OrderStatus = "on_the_way"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// 進行順。レポートの並びにも使う。
var OrderStatuses = []OrderStatus{
	OrderStatusAccepted,
	OrderStatusAssembling,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
}

// 次に進めるステータス（1段ずつ・後戻りなし）
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusAccepted:   OrderStatusAssembling,
	OrderStatusAssembling: OrderStatusOnTheWay,
	OrderStatusOnTheWay:   OrderStatusDelivered,
}

var statusLabels = map[OrderStatus]string{
	OrderStatusAccepted:   "Принят",
	OrderStatusAssembling: "В сборке",
	OrderStatusOnTheWay:   "В пути",
	OrderStatusDelivered:  "Доставлен",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Labelは画面・通知に出す表示名
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// Nextは次のステータス。終端ならfalse。
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := nextStatus[s]
	return n, ok
}

// CanTransitionは from → to が1段先への遷移かどうか
func CanTransition(from, to OrderStatus) bool {
	n, ok := nextStatus[from]
	return ok && n == to
}

type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;default:'accepted';index" json:"status"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	// 作成時にユーザーからコピー（後から /connect で埋まることもある）
	ChannelID *string `gorm:"column:channel_id;type:varchar(64)" json:"-"`
	Address   string  `gorm:"type:text" json:"address"`
	CardText  string  `gorm:"type:text" json:"card_text"`
	Signature string  `gorm:"type:varchar(255)" json:"signature"`
	// 楽観ロック用。ステータス更新ごとに+1。
	Version   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;<-:create;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
