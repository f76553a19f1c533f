package telegram

import (
	"context"
	"fmt"
	"strconv"

	"flowershop/internal/bot"
	"flowershop/internal/config"
	"flowershop/internal/logging"
	"flowershop/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client は Bot API のラッパー。通知の送信とbotの受信ループを持つ。
type Client struct {
	api *tgbotapi.BotAPI
}

func New(cfg config.Telegram) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.Debug
	return &Client{api: api}, nil
}

// Send は notify.Transport の実装
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return err
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if msg.Button != nil {
		out.ReplyMarkup = linkKeyboard([]notify.Button{*msg.Button})
	}

	_, err = c.api.Send(out)
	return err
}

// SendReply はbotの返信を1通送る
func (c *Client) SendReply(chatID int64, r bot.Reply) error {
	if r.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Data})
		doc.Caption = r.Text
		_, err := c.api.Send(doc)
		return err
	}

	out := tgbotapi.NewMessage(chatID, r.Text)
	if r.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	switch {
	case len(r.Links) > 0:
		out.ReplyMarkup = linkKeyboard(r.Links)
	case len(r.Keyboard) > 0:
		out.ReplyMarkup = replyKeyboard(r.Keyboard)
	}

	_, err := c.api.Send(out)
	return err
}

// Run は ctx が終わるまでlong pollingで更新を受け取り、h に渡す
func (c *Client) Run(ctx context.Context, h *bot.Handler) {
	log := logging.New("telegram")

	uc := tgbotapi.NewUpdate(0)
	uc.Timeout = 30
	updates := c.api.GetUpdatesChan(uc)
	defer c.api.StopReceivingUpdates()

	log.Info("bot polling started", "username", c.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			log.Info("bot polling stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if upd.Message == nil {
				continue
			}

			in := bot.Update{
				ChatID: upd.Message.Chat.ID,
				Text:   upd.Message.Text,
			}
			if upd.Message.From != nil {
				in.FirstName = upd.Message.From.FirstName
			}

			for _, r := range h.Handle(ctx, in) {
				if err := c.SendReply(in.ChatID, r); err != nil {
					log.Error("reply failed", "chat_id", in.ChatID, "err", err)
				}
			}
		}
	}
}

func linkKeyboard(links []notify.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(links))
	for _, l := range links {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(l.Label, l.URL)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func replyKeyboard(layout [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(layout))
	for _, line := range layout {
		row := make([]tgbotapi.KeyboardButton, 0, len(line))
		for _, label := range line {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q", s)
	}
	return id, nil
}

var _ notify.Transport = (*Client)(nil)
