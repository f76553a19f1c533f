package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flowershop/internal/domain/model"
	"flowershop/internal/logging"
	"flowershop/internal/notify"
	"flowershop/internal/report"
	"flowershop/internal/usecase"
)

// メニューのボタン文言（押すとそのままテキストで届く）
const (
	BtnMyOrders = "📦 Мои заказы"
	BtnReport   = "📄 Отчет за сегодня"
	BtnRevenue  = "💰 Выручка за сегодня"
	BtnCount    = "📊 Заказы за сегодня"
)

const myOrdersLimit = 5

// 受信したメッセージ
type Update struct {
	ChatID    int64
	FirstName string
	Text      string
}

// 返信1通分
type Reply struct {
	Text     string
	Markdown bool
	// インラインのURLボタン（1行に1つ）
	Links []notify.Button
	// 返信キーボード
	Keyboard [][]string
	Document *Document
}

type Document struct {
	Name string
	Data []byte
}

type Accounts interface {
	LinkChannel(ctx context.Context, userID int64, channelID string) (usecase.LinkChannelOutput, error)
	FindByChannel(ctx context.Context, channelID string) (*model.User, error)
}

type Orders interface {
	ListMyOrders(ctx context.Context, userID int64, limit int) ([]usecase.OrderOutput, error)
}

type Reports interface {
	Build(ctx context.Context, asOf time.Time) (report.Report, error)
	Text(ctx context.Context, asOf time.Time) (string, string, error)
}

type Handler struct {
	accounts    Accounts
	orders      Orders
	reports     Reports
	adminChatID int64
	publicURL   string
	clock       usecase.Clock
}

func NewHandler(accounts Accounts, orders Orders, reports Reports, adminChatID int64, publicURL string, clock usecase.Clock) *Handler {
	if clock == nil {
		clock = usecase.RealClock
	}
	return &Handler{
		accounts:    accounts,
		orders:      orders,
		reports:     reports,
		adminChatID: adminChatID,
		publicURL:   strings.TrimRight(publicURL, "/"),
		clock:       clock,
	}
}

// Handle は1件のメッセージを処理して返信を返す
func (h *Handler) Handle(ctx context.Context, u Update) []Reply {
	l := logging.FromCtx(ctx).With("chat_id", u.ChatID)
	ctx = logging.WithCtx(ctx, l)

	text := strings.TrimSpace(u.Text)
	cmd, arg := splitCommand(text)

	var (
		replies []Reply
		err     error
	)
	switch {
	case cmd == "/start":
		replies = h.start(u)
	case cmd == "/connect":
		replies, err = h.connect(ctx, u, arg)
	case text == BtnMyOrders || cmd == "/orders":
		replies, err = h.myOrders(ctx, u)
	case cmd == "/admin_panel":
		replies = h.adminOnly(u, h.adminPanel)
	case text == BtnReport:
		replies, err = h.adminOnlyErr(ctx, u, h.reportToday)
	case text == BtnRevenue:
		replies, err = h.adminOnlyErr(ctx, u, h.revenueToday)
	case text == BtnCount:
		replies, err = h.adminOnlyErr(ctx, u, h.countToday)
	default:
		replies = []Reply{{Text: "Неизвестная команда. Используйте /start."}}
	}

	if err != nil {
		l.Error("bot command failed", "text", text, "err", err)
		return []Reply{{Text: "⚠️ Произошла ошибка, попробуйте позже."}}
	}
	return replies
}

func (h *Handler) start(u Update) []Reply {
	name := u.FirstName
	if name == "" {
		name = "друг"
	}
	return []Reply{{
		Text: fmt.Sprintf("Привет, %s! Я бот для отслеживания заказов.\n"+
			"Чтобы получать уведомления, привяжите аккаунт: /connect <ID аккаунта>", name),
		Keyboard: [][]string{{BtnMyOrders}},
	}}
}

func (h *Handler) connect(ctx context.Context, u Update, arg string) ([]Reply, error) {
	userID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || userID <= 0 {
		return []Reply{{Text: "Использование: /connect <ID аккаунта>"}}, nil
	}

	out, err := h.accounts.LinkChannel(ctx, userID, chatKey(u.ChatID))
	if errors.Is(err, usecase.ErrNotFound) {
		return []Reply{{Text: "Аккаунт не найден."}}, nil
	}
	if err != nil {
		return nil, err
	}

	return []Reply{{
		Text:     fmt.Sprintf("✅ Аккаунт привязан. Обновлено заказов: %d", out.UpdatedOrders),
		Keyboard: [][]string{{BtnMyOrders}},
	}}, nil
}

func (h *Handler) myOrders(ctx context.Context, u Update) ([]Reply, error) {
	user, err := h.accounts.FindByChannel(ctx, chatKey(u.ChatID))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []Reply{{Text: "Аккаунт не привязан. Используйте /connect <ID аккаунта>."}}, nil
	}

	orders, err := h.orders.ListMyOrders(ctx, user.ID, myOrdersLimit)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []Reply{{Text: "У вас пока нет заказов."}}, nil
	}

	replies := make([]Reply, 0, len(orders))
	for _, o := range orders {
		replies = append(replies, h.orderReply(o))
	}
	return replies, nil
}

func (h *Handler) orderReply(o usecase.OrderOutput) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Заказ #%d*\n", o.ID)
	fmt.Fprintf(&b, "🔄 *Статус:* %s\n", o.StatusLabel)

	product := "Не указан"
	var productID int64
	if len(o.Items) > 0 {
		product = notify.Escape(o.Items[0].Name)
		productID = o.Items[0].ProductID
	}
	fmt.Fprintf(&b, "🌸 *Букет:* %s\n", product)
	fmt.Fprintf(&b, "💰 *Цена:* %s руб.\n", report.Money(o.TotalPrice))

	r := Reply{Text: b.String(), Markdown: true}
	if o.Status == string(model.OrderStatusDelivered) {
		if !o.HasReview {
			r.Links = append(r.Links, notify.Button{
				Label: "📝 Оставить отзыв",
				URL:   fmt.Sprintf("%s/orders/%d/review", h.publicURL, o.ID),
			})
		} else if productID > 0 {
			r.Links = append(r.Links, notify.Button{
				Label: "👀 Посмотреть отзывы",
				URL:   fmt.Sprintf("%s/products/%d#reviews", h.publicURL, productID),
			})
		}
	}
	if productID > 0 {
		r.Links = append(r.Links, notify.Button{
			Label: "🔁 Повторить заказ",
			URL:   fmt.Sprintf("%s/products/%d", h.publicURL, productID),
		})
	}
	return r
}

func (h *Handler) isAdmin(u Update) bool {
	return h.adminChatID != 0 && u.ChatID == h.adminChatID
}

func (h *Handler) adminOnly(u Update, fn func() []Reply) []Reply {
	if !h.isAdmin(u) {
		return []Reply{{Text: "⛔ Нет доступа."}}
	}
	return fn()
}

func (h *Handler) adminOnlyErr(ctx context.Context, u Update, fn func(ctx context.Context) ([]Reply, error)) ([]Reply, error) {
	if !h.isAdmin(u) {
		return []Reply{{Text: "⛔ Нет доступа."}}, nil
	}
	return fn(ctx)
}

func (h *Handler) adminPanel() []Reply {
	return []Reply{{
		Text:     "🔧 Админ-панель",
		Keyboard: [][]string{{BtnReport}, {BtnRevenue}, {BtnCount}, {BtnMyOrders}},
	}}
}

func (h *Handler) reportToday(ctx context.Context) ([]Reply, error) {
	name, body, err := h.reports.Text(ctx, h.clock.Now())
	if err != nil {
		return nil, err
	}
	return []Reply{{Document: &Document{Name: name, Data: []byte(body)}}}, nil
}

func (h *Handler) revenueToday(ctx context.Context) ([]Reply, error) {
	rep, err := h.reports.Build(ctx, h.clock.Now())
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: fmt.Sprintf("💰 Выручка за сегодня: %s руб.", report.Money(rep.Today.Revenue))}}, nil
}

func (h *Handler) countToday(ctx context.Context) ([]Reply, error) {
	rep, err := h.reports.Build(ctx, h.clock.Now())
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: fmt.Sprintf("📊 Заказы за сегодня: %d", rep.Today.Count)}}, nil
}

// "/connect@shop_bot 12" → ("/connect", "12")
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, arg, _ := strings.Cut(text, " ")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
