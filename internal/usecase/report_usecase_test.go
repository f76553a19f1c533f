package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"flowershop/internal/domain/model"
	"flowershop/internal/report"
	"flowershop/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUsecase_Build(t *testing.T) {
	ctx := context.Background()
	s := newRepoSet()
	now := time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC)
	uc := usecase.NewReportUsecase(s.tx, fixedClock{t: now})

	s.orders.On("ListCreatedUntil", ctx, now).Return([]model.Order{
		{ID: 1, UserID: 10, Status: model.OrderStatusDelivered, TotalPrice: decimal.RequireFromString("1500"), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, UserID: 20, Status: model.OrderStatusAccepted, TotalPrice: decimal.RequireFromString("2000"), CreatedAt: now.Add(-1 * time.Hour)},
		{ID: 3, UserID: 10, Status: model.OrderStatusAccepted, TotalPrice: decimal.RequireFromString("500"), CreatedAt: now.AddDate(0, 0, -3)},
	}, nil)
	s.orderProducts.On("ListByOrderIDs", ctx, []int64{1, 2, 3}).Return([]model.OrderProduct{
		{OrderID: 1, ProductID: 7, ProductNameSnapshot: "Розы"},
		{OrderID: 2, ProductID: 7, ProductNameSnapshot: "Розы"},
		{OrderID: 3, ProductID: 8, ProductNameSnapshot: "Тюльпаны"},
	}, nil)
	s.users.On("ListByIDs", ctx, []int64{10, 20}).Return([]model.User{
		{ID: 10, Username: "anna"},
		{ID: 20, Username: "boris"},
	}, nil)

	rep, err := uc.Build(ctx, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, now, rep.AsOf)
	assert.Equal(t, 2, rep.Today.Count)
	assert.True(t, rep.Today.Revenue.Equal(decimal.RequireFromString("3500")))
	assert.Equal(t, 3, rep.Week.Count)
	assert.Equal(t, 3, rep.AllTime.Count)
	assert.True(t, rep.AllTime.Revenue.Equal(decimal.RequireFromString("4000")))

	require.NotEmpty(t, rep.TopUsers)
	assert.Equal(t, report.Ranked{Name: "anna", Count: 2}, rep.TopUsers[0])
	require.NotEmpty(t, rep.TopProducts)
	assert.Equal(t, report.Ranked{Name: "Розы", Count: 2}, rep.TopProducts[0])
}

func TestReportUsecase_Text(t *testing.T) {
	ctx := context.Background()
	s := newRepoSet()
	now := time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC)
	uc := usecase.NewReportUsecase(s.tx, fixedClock{t: now})

	s.orders.On("ListCreatedUntil", ctx, now).Return([]model.Order{}, nil)
	s.orderProducts.On("ListByOrderIDs", ctx, []int64{}).Return([]model.OrderProduct{}, nil)
	s.users.On("ListByIDs", ctx, []int64{}).Return([]model.User{}, nil)

	name, body, err := uc.Text(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "order_report.txt", name)
	assert.NotEmpty(t, strings.TrimSpace(body))
}
