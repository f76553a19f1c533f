package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_OnlyNextStep(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusAccepted, OrderStatusAssembling, true},
		{OrderStatusAssembling, OrderStatusOnTheWay, true},
		{OrderStatusOnTheWay, OrderStatusDelivered, true},
		// skip
		{OrderStatusAccepted, OrderStatusDelivered, false},
		// backward
		{OrderStatusOnTheWay, OrderStatusAssembling, false},
		// terminal
		{OrderStatusDelivered, OrderStatusAccepted, false},
		{OrderStatusAccepted, OrderStatusAccepted, false},
		{OrderStatus("unknown"), OrderStatusAssembling, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatus_LabelAndValid(t *testing.T) {
	assert.Equal(t, "Принят", OrderStatusAccepted.Label())
	assert.Equal(t, "В сборке", OrderStatusAssembling.Label())
	assert.Equal(t, "В пути", OrderStatusOnTheWay.Label())
	assert.Equal(t, "Доставлен", OrderStatusDelivered.Label())
	assert.Equal(t, "cancelled", OrderStatus("cancelled").Label())

	assert.True(t, OrderStatusOnTheWay.Valid())
	assert.False(t, OrderStatus("PAID").Valid())
	assert.True(t, OrderStatusDelivered.Terminal())

	_, ok := OrderStatusDelivered.Next()
	assert.False(t, ok)
	n, ok := OrderStatusAccepted.Next()
	assert.True(t, ok)
	assert.Equal(t, OrderStatusAssembling, n)
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
}

func TestOrderEvent_FirstProduct(t *testing.T) {
	_, ok := OrderEvent{}.FirstProduct()
	assert.False(t, ok)

	ev := OrderEvent{Products: []OrderProduct{{ProductID: 7}, {ProductID: 3}}}
	p, ok := ev.FirstProduct()
	assert.True(t, ok)
	assert.Equal(t, int64(7), p.ProductID)
}
