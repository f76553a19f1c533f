package telegram

import (
	"testing"

	"flowershop/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatID(t *testing.T) {
	id, err := parseChatID("-100123")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)

	_, err = parseChatID("@shop")
	assert.Error(t, err)
}

func TestLinkKeyboard_OneButtonPerRow(t *testing.T) {
	kb := linkKeyboard([]notify.Button{
		{Label: "📝 Оставить отзыв", URL: "http://shop.test/orders/1/review"},
		{Label: "🔁 Повторить заказ", URL: "http://shop.test/products/2"},
	})

	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "📝 Оставить отзыв", kb.InlineKeyboard[0][0].Text)
	require.NotNil(t, kb.InlineKeyboard[0][0].URL)
	assert.Equal(t, "http://shop.test/orders/1/review", *kb.InlineKeyboard[0][0].URL)
}

func TestReplyKeyboard_Layout(t *testing.T) {
	kb := replyKeyboard([][]string{{"a", "b"}, {"c"}})

	require.Len(t, kb.Keyboard, 2)
	assert.Len(t, kb.Keyboard[0], 2)
	assert.Equal(t, "c", kb.Keyboard[1][0].Text)
	assert.True(t, kb.ResizeKeyboard)
}
