package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"gold-trading-lab/internal/domain"
)

// StreamConfig configures the websocket bar stream.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval between ping frames.
	PingInterval time.Duration
	// ReadTimeout is the per-message read deadline.
	ReadTimeout time.Duration
	// WriteTimeout is the per-message write deadline.
	WriteTimeout time.Duration
	// BufferSize is the number of bars retained per subscription.
	BufferSize int
}

// DefaultStreamConfig returns the default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		BufferSize:        500,
	}
}

type seriesKey struct {
	symbol    string
	timeframe domain.Timeframe
}

type streamMessage struct {
	Symbol    string     `json:"symbol"`
	Timeframe string     `json:"timeframe"`
	Bar       barPayload `json:"bar"`
}

type subscribeRequest struct {
	Action    string `json:"action"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// StreamSource maintains rolling bar series fed by a websocket stream.
// GetPriceSeries serves from the in-memory buffer, so live cycles never
// block on the network. The reader reconnects with backoff and
// resubscribes after a drop.
type StreamSource struct {
	endpoint string
	cfg      StreamConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup

	mu     sync.RWMutex
	series map[seriesKey][]domain.Bar
	subs   map[seriesKey]struct{}
}

// NewStreamSource connects to the endpoint and starts the read and ping
// loops.
func NewStreamSource(ctx context.Context, endpoint string, config *StreamConfig, logger *log.Logger) (*StreamSource, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &StreamSource{
		endpoint: endpoint,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
		series:   make(map[seriesKey][]domain.Bar),
		subs:     make(map[seriesKey]struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

func (s *StreamSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	s.conn = conn
	return nil
}

// Subscribe registers a symbol/timeframe pair with the feed. The
// subscription survives reconnects.
func (s *StreamSource) Subscribe(symbol string, timeframe domain.Timeframe) error {
	if s.closed.Load() {
		return fmt.Errorf("stream source closed")
	}

	key := seriesKey{symbol: symbol, timeframe: timeframe}
	s.mu.Lock()
	s.subs[key] = struct{}{}
	s.mu.Unlock()

	return s.writeSubscribe(key)
}

func (s *StreamSource) writeSubscribe(key seriesKey) error {
	req := subscribeRequest{
		Action:    "subscribe",
		Symbol:    key.symbol,
		Timeframe: string(key.timeframe),
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe %s/%s: %w", key.symbol, key.timeframe, err)
	}
	return nil
}

func (s *StreamSource) readLoop() {
	defer s.wg.Done()

	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			s.logger.Printf("stream: set read deadline: %v", err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Printf("stream: read failed, reconnecting: %v", err)
			if !s.reconnect() {
				return
			}
			continue
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Printf("stream: drop malformed message: %v", err)
			continue
		}
		s.ingest(msg)
	}
}

// ingest appends the bar to its series. A bar with the timestamp of the
// current last bar replaces it, so in-progress bar updates overwrite
// instead of corrupting the order.
func (s *StreamSource) ingest(msg streamMessage) {
	bar := domain.Bar{
		Timestamp: time.UnixMilli(msg.Bar.TimestampMs).UTC(),
		Open:      msg.Bar.Open,
		High:      msg.Bar.High,
		Low:       msg.Bar.Low,
		Close:     msg.Bar.Close,
		Volume:    msg.Bar.Volume,
	}
	key := seriesKey{symbol: msg.Symbol, timeframe: domain.Timeframe(msg.Timeframe)}

	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.series[key]
	switch {
	case len(series) == 0 || bar.Timestamp.After(series[len(series)-1].Timestamp):
		series = append(series, bar)
	case bar.Timestamp.Equal(series[len(series)-1].Timestamp):
		series[len(series)-1] = bar
	default:
		// Out-of-order bar: drop rather than break the series ordering.
		s.logger.Printf("stream: drop out-of-order bar %s/%s at %s",
			key.symbol, key.timeframe, bar.Timestamp.Format(time.RFC3339))
		return
	}

	if len(series) > s.cfg.BufferSize {
		series = series[len(series)-s.cfg.BufferSize:]
	}
	s.series[key] = series
}

func (s *StreamSource) reconnect() bool {
	b := &backoff.Backoff{
		Min:    s.cfg.ReconnectDelay,
		Max:    s.cfg.MaxReconnectDelay,
		Factor: 2,
		Jitter: true,
	}

	for {
		select {
		case <-s.done:
			return false
		case <-time.After(b.Duration()):
		}

		if err := s.connect(context.Background()); err != nil {
			s.logger.Printf("stream: reconnect failed: %v", err)
			continue
		}

		s.mu.RLock()
		keys := make([]seriesKey, 0, len(s.subs))
		for key := range s.subs {
			keys = append(keys, key)
		}
		s.mu.RUnlock()

		ok := true
		for _, key := range keys {
			if err := s.writeSubscribe(key); err != nil {
				s.logger.Printf("stream: resubscribe failed: %v", err)
				ok = false
				break
			}
		}
		if ok {
			s.logger.Printf("stream: reconnected to %s", s.endpoint)
			return true
		}
	}
}

func (s *StreamSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout))
			s.connMu.Unlock()
			if err != nil && !s.closed.Load() {
				s.logger.Printf("stream: ping failed: %v", err)
			}
		}
	}
}

// GetPriceSeries returns up to lookback buffered bars for the pair.
// An empty buffer means the stream has not delivered data yet.
func (s *StreamSource) GetPriceSeries(_ context.Context, symbol string, timeframe domain.Timeframe, lookback int) ([]domain.Bar, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("stream: lookback %d must be > 0", lookback)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[seriesKey{symbol: symbol, timeframe: timeframe}]
	if len(series) == 0 {
		return nil, fmt.Errorf("stream: no buffered bars for %s/%s: %w", symbol, timeframe, ErrDataUnavailable)
	}

	if len(series) > lookback {
		series = series[len(series)-lookback:]
	}
	out := make([]domain.Bar, len(series))
	copy(out, series)
	return out, nil
}

// GetNews always fails: the bar stream carries no news. In a chain the
// request falls through to the next source.
func (s *StreamSource) GetNews(_ context.Context, symbol string) ([]domain.NewsItem, error) {
	return nil, fmt.Errorf("stream: no news feed for %s: %w", symbol, ErrDataUnavailable)
}

// Name returns the stream identifier.
func (s *StreamSource) Name() string {
	return "stream"
}

// Close shuts down the loops and the connection.
func (s *StreamSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	err := s.conn.Close()
	s.connMu.Unlock()

	s.wg.Wait()
	return err
}

var _ Provider = (*StreamSource)(nil)
