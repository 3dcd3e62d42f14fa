package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"triarb/internal/domain"
	"triarb/internal/infra"
	"triarb/internal/service"

	"github.com/gorilla/websocket"
)

const (
	maxRetries  = 10
	readTimeout = 60 * time.Second
)

// bookTickerResponse represents a Binance combined-stream bookTicker payload.
// Prices arrive as strings.
type bookTickerResponse struct {
	Stream string `json:"stream"`
	Data   struct {
		UpdateID int64  `json:"u"`
		Symbol   string `json:"s"`
		Bid      string `json:"b"`
		BidQty   string `json:"B"`
		Ask      string `json:"a"`
		AskQty   string `json:"A"`
	} `json:"data"`
}

// Worker handles the Binance WebSocket connection and applies each best
// bid/ask tick to the quote book. Reconnect and backoff are its own concern;
// the rest of the pipeline only sees fresh quotes arriving.
type Worker struct {
	wsURL     string
	symbols   []string
	tracked   map[string]bool
	book      *service.QuoteBook
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a new Binance feed worker writing into book.
func NewWorker(wsURL string, symbols []string, book *service.QuoteBook) *Worker {
	tracked := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		tracked[s] = true
	}
	return &Worker{
		wsURL:   wsURL,
		symbols: symbols,
		tracked: tracked,
		book:    book,
	}
}

// Connect starts the WebSocket connection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Binance connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
			// Connection dropped; quotes rebuild from fresh ticks after resubscribe.
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)

	conn, _, err := dialer.DialContext(ctx, w.wsURL, header)
	if err != nil {
		return domain.NewNetworkError("dial", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	infra.GlobalMetrics.SetFeedConnected(true)

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Binance connected", slog.Int("subs", len(w.symbols)))
	return nil
}

func (w *Worker) subscribe() error {
	params := make([]string, len(w.symbols))
	for i, s := range w.symbols {
		params[i] = strings.ToLower(s) + "@bookTicker"
	}

	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     time.Now().UnixNano(),
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		if w.conn == nil {
			w.mu.RUnlock()
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		w.mu.RUnlock()

		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			slog.Warn("Binance read failed", slog.Any("error", err))
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

// handleMessage parses a combined-stream frame and applies it to the book.
// Malformed frames and untracked symbols are dropped silently.
func (w *Worker) handleMessage(msg []byte) {
	var resp bookTickerResponse
	if json.Unmarshal(msg, &resp) != nil || resp.Data.Symbol == "" {
		infra.GlobalMetrics.RecordTickDropped()
		return
	}
	if !w.tracked[resp.Data.Symbol] {
		infra.GlobalMetrics.RecordTickDropped()
		return
	}

	bid, err1 := strconv.ParseFloat(resp.Data.Bid, 64)
	ask, err2 := strconv.ParseFloat(resp.Data.Ask, 64)
	if err1 != nil || err2 != nil || bid <= 0 || ask <= 0 {
		infra.GlobalMetrics.RecordTickDropped()
		return
	}

	w.book.Update(resp.Data.Symbol, bid, ask)
	infra.GlobalMetrics.RecordTickApplied()
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	infra.GlobalMetrics.SetFeedConnected(false)
}

// IsConnected reports whether the websocket is currently up.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
