package notify

import (
	"fmt"
	"log"
	"time"

	tele "gopkg.in/telebot.v3"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/observability"
)

// sender is the slice of *tele.Bot the notifier needs.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier sends reports to a single chat. Sends run in their
// own goroutine so a slow or failing Telegram API never delays a cycle.
type TelegramNotifier struct {
	bot    sender
	chatID int64
	logger *log.Logger
}

// NewTelegramNotifier creates a send-only bot for the chat.
func NewTelegramNotifier(token string, chatID int64, logger *log.Logger) (*TelegramNotifier, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// SendReport delivers the text asynchronously. Failures are logged.
func (n *TelegramNotifier) SendReport(text string) {
	go func() {
		if err := n.Send(text); err != nil {
			n.logger.Printf("telegram send failed: %v", err)
		}
	}()
}

// Send delivers the text and waits for the API response. Used by the
// one-shot report binary, which exits right after sending.
func (n *TelegramNotifier) Send(text string) error {
	_, err := n.bot.Send(&tele.User{ID: n.chatID}, text, tele.ModeMarkdown)
	if err != nil {
		observability.RecordReportFailure()
		return err
	}
	observability.RecordReportSent()
	return nil
}

// TradeOpened reports a freshly opened trade.
func (n *TelegramNotifier) TradeOpened(t *domain.Trade) {
	n.SendReport(FormatTradeOpened(t))
}

// TradeClosed reports a closed trade.
func (n *TelegramNotifier) TradeClosed(t *domain.Trade) {
	n.SendReport(FormatTradeClosed(t))
}

// FormatTradeOpened renders an open notification.
func FormatTradeOpened(t *domain.Trade) string {
	return fmt.Sprintf(`*POSITION OPENED*

%s %s
Entry: %.2f
Size: %.2f
Take Profit: %.2f
Stop Loss: %.2f
Opened: %s`,
		t.Direction,
		t.Instrument,
		t.EntryPrice,
		t.Size,
		t.TakeProfit,
		t.StopLoss,
		t.OpenTime.UTC().Format(time.RFC3339),
	)
}

// FormatTradeClosed renders a close notification.
func FormatTradeClosed(t *domain.Trade) string {
	exit := 0.0
	if t.ExitPrice != nil {
		exit = *t.ExitPrice
	}
	pnl := 0.0
	if t.PnL != nil {
		pnl = *t.PnL
	}
	closedAt := ""
	if t.CloseTime != nil {
		closedAt = t.CloseTime.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf(`*POSITION CLOSED* (%s)

%s %s: %s
Entry: %.2f -> Exit: %.2f
PnL: %+.2f
Closed: %s`,
		t.CloseReason,
		t.Direction,
		t.Instrument,
		t.Outcome,
		t.EntryPrice,
		exit,
		pnl,
		closedAt,
	)
}

var _ Notifier = (*TelegramNotifier)(nil)
