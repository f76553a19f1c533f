// Package notify pushes order status messages to the customer's chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flowershop/internal/domain/model"
	"flowershop/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_notifications_total",
		Help: "Order notifications by result (sent, failed, skipped)",
	},
	[]string{"result"},
)

// Button is a single inline link under the message.
type Button struct {
	Label string
	URL   string
}

// Message is one outbound chat message. Text uses Telegram's legacy Markdown.
type Message struct {
	ChatID string
	Text   string
	Button *Button
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// ReviewChecker reports whether an order already has a review.
type ReviewChecker interface {
	Exists(ctx context.Context, orderID int64) (bool, error)
}

type Dispatcher struct {
	transport Transport
	reviews   ReviewChecker
	publicURL string
	loc       *time.Location
}

type Option func(*Dispatcher)

// WithLocation sets the zone used to print the order date.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) { d.loc = loc }
}

func NewDispatcher(transport Transport, reviews ReviewChecker, publicURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		reviews:   reviews,
		publicURL: strings.TrimRight(publicURL, "/"),
		loc:       time.Local,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// OnOrderEvent sends at most one message per event. Orders without a channel
// and events that land on "accepted" are skipped. Transport errors are logged only.
func (d *Dispatcher) OnOrderEvent(ctx context.Context, ev model.OrderEvent) {
	l := logging.FromCtx(ctx).With("order_id", ev.Order.ID, "event", string(ev.Type), "status", string(ev.NewStatus))

	if ev.Order.ChannelID == nil || *ev.Order.ChannelID == "" {
		sent.WithLabelValues("skipped").Inc()
		return
	}
	if ev.NewStatus == model.OrderStatusAccepted {
		sent.WithLabelValues("skipped").Inc()
		return
	}

	msg := d.Render(ctx, ev)
	if err := d.transport.Send(ctx, msg); err != nil {
		sent.WithLabelValues("failed").Inc()
		l.Error("notification failed", "err", err)
		return
	}
	sent.WithLabelValues("sent").Inc()
	l.Info("notification sent")
}

// Render builds the message for ev. A delivered order gets a review button.
func (d *Dispatcher) Render(ctx context.Context, ev model.OrderEvent) Message {
	o := ev.Order

	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Заказ #%d*\n", o.ID)
	fmt.Fprintf(&b, "🔄 *Статус:* %s\n\n", ev.NewStatus.Label())

	product := "Не указан"
	if p, ok := ev.FirstProduct(); ok {
		product = Escape(p.ProductNameSnapshot)
	}
	fmt.Fprintf(&b, "🌸 *Букет:* %s\n", product)

	address := "Не указан"
	if strings.TrimSpace(o.Address) != "" {
		address = Escape(o.Address)
	}
	fmt.Fprintf(&b, "📍 *Адрес доставки:* %s\n", address)

	for _, line := range CardInfo(o.CardText, o.Signature) {
		fmt.Fprintf(&b, "%s %s\n", line.Label, Escape(line.Value))
	}

	fmt.Fprintf(&b, "💰 *Цена:* %s руб.\n", o.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "📅 *Дата заказа:* %s\n", o.CreatedAt.In(d.loc).Format("02.01.2006 15:04"))

	msg := Message{ChatID: *o.ChannelID, Text: b.String()}
	if ev.NewStatus == model.OrderStatusDelivered {
		msg.Button = d.reviewButton(ctx, ev)
	}
	return msg
}

func (d *Dispatcher) reviewButton(ctx context.Context, ev model.OrderEvent) *Button {
	exists, err := d.reviews.Exists(ctx, ev.Order.ID)
	if err != nil {
		// no button is better than a wrong one
		logging.FromCtx(ctx).Warn("review lookup failed", "order_id", ev.Order.ID, "err", err)
		return nil
	}
	if !exists {
		return &Button{
			Label: "📝 Оставить отзыв",
			URL:   fmt.Sprintf("%s/orders/%d/review", d.publicURL, ev.Order.ID),
		}
	}
	p, ok := ev.FirstProduct()
	if !ok {
		return nil
	}
	return &Button{
		Label: "👀 Посмотреть отзывы",
		URL:   fmt.Sprintf("%s/products/%d#reviews", d.publicURL, p.ProductID),
	}
}

type CardLine struct {
	Label string
	Value string
}

// CardInfo describes the greeting card. A lone signature becomes the card text.
func CardInfo(text, signature string) []CardLine {
	text = strings.TrimSpace(text)
	signature = strings.TrimSpace(signature)

	switch {
	case text != "" && signature != "":
		return []CardLine{{"Текст на открытке:", text}, {"Подпись:", signature}}
	case text != "":
		return []CardLine{{"Текст на открытке:", text}, {"Подпись:", "Без подписи"}}
	case signature != "":
		return []CardLine{{"Текст на открытке:", signature}}
	default:
		return []CardLine{{"Текст на открытке:", "Без открытки"}}
	}
}

var mdEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Escape protects user text inside legacy Markdown.
func Escape(s string) string {
	return mdEscaper.Replace(s)
}
