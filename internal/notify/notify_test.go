package notify

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"gold-trading-lab/internal/domain"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	calls chan struct{}
}

func newFakeSender(err error) *fakeSender {
	return &fakeSender{err: err, calls: make(chan struct{}, 16)}
}

func (f *fakeSender) Send(_ tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	if text, ok := what.(string); ok {
		f.sent = append(f.sent, text)
	}
	f.mu.Unlock()
	f.calls <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func (f *fakeSender) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("send was never called")
	}
}

func closedTestTrade() *domain.Trade {
	closeTime := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	exit := 1938.51
	pnl := 199.93
	return &domain.Trade{
		ID:          "t-1",
		Instrument:  "XAUUSD",
		OpenTime:    closeTime.Add(-3 * time.Hour),
		EntryPrice:  1900.50,
		Direction:   domain.DirectionBuy,
		Size:        5.26,
		StopLoss:    1881.495,
		TakeProfit:  1938.51,
		Status:      domain.TradeStatusClosed,
		CloseTime:   &closeTime,
		ExitPrice:   &exit,
		PnL:         &pnl,
		Outcome:     domain.OutcomeWin,
		CloseReason: domain.CloseReasonTakeProfit,
	}
}

func TestLogNotifier_WritesReport(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	n.SendReport("daily summary")
	assert.Contains(t, buf.String(), "daily summary")
}

func TestTelegramNotifier_SendsAsync(t *testing.T) {
	sender := newFakeSender(nil)
	n := &TelegramNotifier{bot: sender, chatID: 42, logger: log.New(io.Discard, "", 0)}

	n.SendReport("hello")
	sender.waitForCall(t)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hello", sender.sent[0])
}

func TestTelegramNotifier_FailureIsLoggedNotRaised(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0)

	sender := newFakeSender(errors.New("telegram: 502"))
	n := &TelegramNotifier{bot: sender, chatID: 42, logger: logger}

	// Must return immediately and never panic.
	n.SendReport("report")
	sender.waitForCall(t)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return strings.Contains(buf.String(), "telegram send failed")
	}, 2*time.Second, 10*time.Millisecond)
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func TestFormatTradeOpened(t *testing.T) {
	trade := closedTestTrade()
	text := FormatTradeOpened(trade)

	assert.Contains(t, text, "POSITION OPENED")
	assert.Contains(t, text, "BUY XAUUSD")
	assert.Contains(t, text, "1900.50")
	assert.Contains(t, text, "1938.51")
	assert.Contains(t, text, "1881.49") // stop rendered at 2dp
}

func TestFormatTradeClosed(t *testing.T) {
	trade := closedTestTrade()
	text := FormatTradeClosed(trade)

	assert.Contains(t, text, "POSITION CLOSED")
	assert.Contains(t, text, "TAKE_PROFIT")
	assert.Contains(t, text, "WIN")
	assert.Contains(t, text, "+199.93")
	assert.Contains(t, text, "2025-03-10T14:00:00Z")
}

func TestFormatTradeClosed_NilPointerFieldsRenderZero(t *testing.T) {
	trade := closedTestTrade()
	trade.ExitPrice = nil
	trade.PnL = nil
	trade.CloseTime = nil

	assert.NotPanics(t, func() {
		text := FormatTradeClosed(trade)
		assert.Contains(t, text, "+0.00")
	})
}
