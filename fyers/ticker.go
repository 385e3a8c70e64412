package fyers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"optioneer/market"
)

// SocketURL is the Fyers data-socket endpoint.
const SocketURL = "wss://socket.fyers.in/trade/v3"

// TickHandler consumes one push-stream price update.
type TickHandler func(market.Tick)

// Ticker subscribes to the Fyers price stream and feeds each update to
// the handler. It reconnects with a flat backoff until ctx is done;
// stream gaps are acceptable because the timer-driven scan still
// covers every position.
type Ticker struct {
	url     string
	appID   string
	token   string
	symbols []string
	handler TickHandler
	log     *zap.Logger

	backoff time.Duration
}

func NewTicker(appID, accessToken string, symbols []string, handler TickHandler, log *zap.Logger) *Ticker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ticker{
		url:     SocketURL,
		appID:   appID,
		token:   accessToken,
		symbols: symbols,
		handler: handler,
		log:     log,
		backoff: 5 * time.Second,
	}
}

// Run blocks, maintaining the stream until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	for {
		if err := t.stream(ctx); err != nil {
			t.log.Warn("tick stream dropped", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.backoff):
		}
	}
}

type subscribeMsg struct {
	T       string   `json:"T"`
	Symbols []string `json:"symbol"`
	Token   string   `json:"token"`
}

type tickMsg struct {
	Symbol string  `json:"symbol"`
	LTP    float64 `json:"ltp"`
	TS     int64   `json:"exch_feed_time"`
}

func (t *Ticker) stream(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := subscribeMsg{T: "SUB_DATA", Symbols: t.symbols, Token: t.appID + ":" + t.token}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	t.log.Info("tick stream connected", zap.Strings("symbols", t.symbols))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg tickMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // heartbeat or unknown frame
		}
		if msg.Symbol == "" || msg.LTP <= 0 {
			continue
		}

		t.handler(market.Tick{
			Symbol: msg.Symbol,
			LTP:    msg.LTP,
			Time:   time.Unix(msg.TS, 0),
		})
	}
}
