// Package report aggregates orders into the admin sales report.
package report

import (
	"sort"
	"time"

	"flowershop/internal/domain/model"

	"github.com/shopspring/decimal"
)

// Filename is the name used for the downloadable report.
const Filename = "order_report.txt"

const topN = 5

// ProductRef identifies a product by id; Name is what gets printed.
type ProductRef struct {
	ID   int64
	Name string
}

// OrderRow is one order as the report sees it.
type OrderRow struct {
	OrderID   int64
	UserID    int64
	UserName  string
	Status    model.OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	Products  []ProductRef
}

type Period struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int               `json:"count"`
}

type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Report struct {
	AsOf    time.Time `json:"as_of"`
	Today   Period    `json:"today"`
	Week    Period    `json:"week"`
	Month   Period    `json:"month"`
	AllTime Period    `json:"all_time"`
	// all-time revenue / all-time count, 0 when there are no orders
	Average     decimal.Decimal `json:"average"`
	Statuses    []StatusCount   `json:"statuses"`
	TopUsers    []Ranked        `json:"top_users"`
	TopProducts []Ranked        `json:"top_products"`
}

// Build aggregates rows as of asOf. Rows created after asOf are ignored.
// Day boundaries use asOf's location; rows should be in id order so that
// ranking ties keep the first-seen entry ahead.
func Build(rows []OrderRow, asOf time.Time) Report {
	today := startOfDay(asOf)
	weekFrom := today.AddDate(0, 0, -7)
	monthFrom := today.AddDate(0, 0, -30)

	r := Report{
		AsOf:    asOf,
		Today:   Period{Revenue: decimal.Zero},
		Week:    Period{Revenue: decimal.Zero},
		Month:   Period{Revenue: decimal.Zero},
		AllTime: Period{Revenue: decimal.Zero},
		Average: decimal.Zero,
	}

	statusCounts := make(map[model.OrderStatus]int, len(model.OrderStatuses))
	users := newCounter()
	products := newCounter()

	for _, row := range rows {
		if row.CreatedAt.After(asOf) {
			continue
		}
		created := row.CreatedAt.In(asOf.Location())

		r.AllTime.add(row.Total)
		if !created.Before(monthFrom) {
			r.Month.add(row.Total)
		}
		if !created.Before(weekFrom) {
			r.Week.add(row.Total)
		}
		if !created.Before(today) {
			r.Today.add(row.Total)
		}

		statusCounts[row.Status]++
		users.inc(row.UserID, row.UserName)
		for _, p := range row.Products {
			products.inc(p.ID, p.Name)
		}
	}

	if r.AllTime.Count > 0 {
		r.Average = r.AllTime.Revenue.Div(decimal.NewFromInt(int64(r.AllTime.Count))).Round(2)
	}

	r.Statuses = make([]StatusCount, 0, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		r.Statuses = append(r.Statuses, StatusCount{Status: s, Count: statusCounts[s]})
	}

	r.TopUsers = users.top(topN)
	r.TopProducts = products.top(topN)
	return r
}

func (p *Period) add(v decimal.Decimal) {
	p.Count++
	p.Revenue = p.Revenue.Add(v)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// counter keeps insertion order so the stable sort below resolves ties first-seen.
type counter struct {
	index map[int64]int
	items []Ranked
}

func newCounter() *counter {
	return &counter{index: map[int64]int{}}
}

func (c *counter) inc(id int64, name string) {
	if i, ok := c.index[id]; ok {
		c.items[i].Count++
		return
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, Ranked{Name: name, Count: 1})
}

func (c *counter) top(n int) []Ranked {
	out := make([]Ranked, len(c.items))
	copy(out, c.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
