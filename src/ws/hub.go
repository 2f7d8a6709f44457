package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"mock-exchange/src/engine"
)

type BalanceMessage struct {
	Type     string                         `json:"type"`
	APIKey   string                         `json:"api_key"`
	Balances map[string]engine.AssetBalance `json:"balances"`
}

type StrategyStatusMessage struct {
	Type      string `json:"type"`
	Strategy  string `json:"strategy"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"` // unix timestamp in milliseconds
}

type TickerMessage struct {
	Type     string  `json:"type"`
	Strategy string  `json:"strategy"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Cursor   int     `json:"cursor"`
}

type OrderMessage struct {
	Type         string  `json:"type"`
	OrderID      string  `json:"order_id"`
	APIKey       string  `json:"api_key"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Price        float64 `json:"price"`
	FilledAmount float64 `json:"filled_amount"`
	Trades       int     `json:"trades"`
}

// Hub fans simulation events out to every connected websocket client. It
// implements engine.Notifier, so the exchange core stays unaware of
// subscriber connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and broadcasts. Start it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", total).Msg("Websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", total).Msg("Websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// edge case: drop slow clients instead of blocking the hub
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		log.Warn().Msg("Websocket client dropped: send buffer full")
	}
}

// Broadcast marshals the payload and queues it for every client. Payloads
// are dropped when the broadcast queue is saturated.
func (h *Hub) Broadcast(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal websocket payload")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn().Msg("Websocket broadcast queue full, payload dropped")
	}
}

func (h *Hub) BalanceUpdated(apiKey string, balances map[string]engine.AssetBalance) {
	h.Broadcast(BalanceMessage{
		Type:     "balanceUpdate",
		APIKey:   apiKey,
		Balances: balances,
	})
}

func (h *Hub) StrategyStatusChanged(name string, status engine.StrategyStatus, at time.Time) {
	h.Broadcast(StrategyStatusMessage{
		Type:      "strategyStatus",
		Strategy:  name,
		Status:    string(status),
		Timestamp: at.UnixMilli(),
	})
}

func (h *Hub) TickerAdvanced(name, symbol string, price float64, cursor int) {
	h.Broadcast(TickerMessage{
		Type:     "ticker",
		Strategy: name,
		Symbol:   symbol,
		Price:    price,
		Cursor:   cursor,
	})
}

func (h *Hub) OrderResolved(summary engine.OrderSummary) {
	h.Broadcast(OrderMessage{
		Type:         "orderUpdate",
		OrderID:      summary.OrderID,
		APIKey:       summary.APIKey,
		Symbol:       summary.Symbol,
		Side:         string(summary.Side),
		Status:       string(summary.Status),
		Amount:       summary.Amount,
		Price:        summary.Price,
		FilledAmount: summary.FilledAmount,
		Trades:       summary.Trades,
	})
}
