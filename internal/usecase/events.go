package usecase

import (
	"context"
	"time"

	"flowershop/internal/domain/model"

	"github.com/google/uuid"
)

// 注文イベントの受け手（通知・キャッシュ・Kafkaなど）。
// 失敗は受け手側でログに残し、呼び出し元には返さない。
type OrderEventListener interface {
	OnOrderEvent(ctx context.Context, ev model.OrderEvent)
}

type OrderEventListenerFunc func(ctx context.Context, ev model.OrderEvent)

func (f OrderEventListenerFunc) OnOrderEvent(ctx context.Context, ev model.OrderEvent) {
	f(ctx, ev)
}

// 登録順に同期で呼ぶ
type OrderEventBus struct {
	listeners []OrderEventListener
}

func NewOrderEventBus(listeners ...OrderEventListener) *OrderEventBus {
	return &OrderEventBus{listeners: listeners}
}

func (b *OrderEventBus) Subscribe(l OrderEventListener) {
	b.listeners = append(b.listeners, l)
}

func (b *OrderEventBus) Publish(ctx context.Context, evs ...model.OrderEvent) {
	if b == nil {
		return
	}
	for _, ev := range evs {
		for _, l := range b.listeners {
			l.OnOrderEvent(ctx, ev)
		}
	}
}

func newOrderEvent(typ model.OrderEventType, o model.Order, products []model.OrderProduct, old model.OrderStatus, now time.Time) model.OrderEvent {
	return model.OrderEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Order:     o,
		Products:  products,
		OldStatus: old,
		NewStatus: o.Status,
		At:        now,
	}
}
