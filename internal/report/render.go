package report

import (
	"fmt"
	"strings"

	"flowershop/internal/domain/model"

	"github.com/shopspring/decimal"
)

var statusLines = map[model.OrderStatus]string{
	model.OrderStatusAccepted:   "✅ Принято",
	model.OrderStatusAssembling: "🛠 В сборке",
	model.OrderStatusOnTheWay:   "🚚 В пути",
	model.OrderStatusDelivered:  "📦 Доставлено",
}

// Render formats the report as the text block used for the download and the bot document.
func Render(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 Отчет за %s\n\n", r.AsOf.Format("02.01.2006"))

	b.WriteString("📦 *Количество заказов:*\n")
	fmt.Fprintf(&b, "   - Сегодня: %d\n", r.Today.Count)
	fmt.Fprintf(&b, "   - За неделю: %d\n", r.Week.Count)
	fmt.Fprintf(&b, "   - За месяц: %d\n", r.Month.Count)
	fmt.Fprintf(&b, "   - Всего: %d\n\n", r.AllTime.Count)

	b.WriteString("💰 *Выручка:*\n")
	fmt.Fprintf(&b, "   - Сегодня: %s руб.\n", Money(r.Today.Revenue))
	fmt.Fprintf(&b, "   - За неделю: %s руб.\n", Money(r.Week.Revenue))
	fmt.Fprintf(&b, "   - За месяц: %s руб.\n", Money(r.Month.Revenue))
	fmt.Fprintf(&b, "   - Всего: %s руб.\n\n", Money(r.AllTime.Revenue))

	fmt.Fprintf(&b, "💳 *Средний чек:* %s руб.\n\n", Money(r.Average))

	b.WriteString("📊 *Статистика по статусам (все время):*\n")
	for _, sc := range r.Statuses {
		fmt.Fprintf(&b, "   %s: %d\n", statusLines[sc.Status], sc.Count)
	}

	b.WriteString("\n👥 *ТОП-5 пользователей по заказам:*\n")
	writeRanked(&b, r.TopUsers, "заказ(ов)")

	b.WriteString("\n🌸 *ТОП-5 популярных букетов:*\n")
	writeRanked(&b, r.TopProducts, "раз(а)")

	return b.String()
}

func writeRanked(b *strings.Builder, items []Ranked, unit string) {
	if len(items) == 0 {
		b.WriteString("   Нет данных.\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "   - %s: %d %s\n", it.Name, it.Count, unit)
	}
}

// Money prints an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
