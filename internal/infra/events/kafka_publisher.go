package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"flowershop/internal/config"
	"flowershop/internal/domain/model"
	"flowershop/internal/logging"
	"flowershop/internal/usecase"

	"github.com/segmentio/kafka-go"
)

// Kafkaに流す注文イベント
type orderEnvelope struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	OccurredAt time.Time         `json:"occurred_at"`
	OrderID    int64             `json:"order_id"`
	UserID     int64             `json:"user_id"`
	OldStatus  model.OrderStatus `json:"old_status,omitempty"`
	NewStatus  model.OrderStatus `json:"new_status"`
	TotalPrice string            `json:"total_price"`
	ProductIDs []int64           `json:"product_ids"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher は注文イベントをトピックへ書く。キーは注文IDなので同じ注文は同じパーティション。
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg config.Kafka) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// OnOrderEvent は書き込みに失敗してもログだけ残す
func (p *KafkaPublisher) OnOrderEvent(ctx context.Context, ev model.OrderEvent) {
	msg, err := toMessage(ev)
	if err != nil {
		logging.FromCtx(ctx).Error("order event encode failed", "order_id", ev.Order.ID, "err", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logging.FromCtx(ctx).Error("order event publish failed", "order_id", ev.Order.ID, "event", string(ev.Type), "err", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(ev model.OrderEvent) (kafka.Message, error) {
	ids := make([]int64, 0, len(ev.Products))
	for _, p := range ev.Products {
		ids = append(ids, p.ProductID)
	}

	body, err := json.Marshal(orderEnvelope{
		EventID:    ev.ID,
		EventType:  string(ev.Type),
		OccurredAt: ev.At.UTC(),
		OrderID:    ev.Order.ID,
		UserID:     ev.Order.UserID,
		OldStatus:  ev.OldStatus,
		NewStatus:  ev.NewStatus,
		TotalPrice: ev.Order.TotalPrice.StringFixed(2),
		ProductIDs: ids,
	})
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.Order.ID, 10)),
		Value: body,
		Time:  ev.At.UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

var _ usecase.OrderEventListener = (*KafkaPublisher)(nil)
