package handlers

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"mock-exchange/src/engine"
	"mock-exchange/src/models"
)

type ExchangeHandler struct {
	Exchange  *engine.Exchange
	StartTime time.Time

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewExchangeHandler(exchange *engine.Exchange) *ExchangeHandler {
	maxLatencies := 10000
	if envMax := os.Getenv("METRICS_MAX_LATENCIES"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxLatencies = parsed
		}
	}

	return &ExchangeHandler{
		Exchange:     exchange,
		StartTime:    time.Now(),
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

func (h *ExchangeHandler) AcceptAccount(c *fiber.Ctx) error {
	var req models.AcceptAccountRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	if req.APIKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: api_key is required",
		})
	}

	h.Exchange.AcceptAccount(req.APIKey)

	balances, err := h.Exchange.Balance(req.APIKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.AcceptAccountResponse{
		APIKey:   req.APIKey,
		Balances: toBalanceInfo(balances),
	})
}

func (h *ExchangeHandler) GetBalance(c *fiber.Ctx) error {
	apiKey := c.Params("key")

	balances, err := h.Exchange.Balance(apiKey)
	if err != nil {
		return mapEngineError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(models.BalanceResponse{
		APIKey:   apiKey,
		Balances: toBalanceInfo(balances),
	})
}

func (h *ExchangeHandler) CreateOrder(c *fiber.Ctx) error {
	var req models.CreateOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	if err := validateCreateOrderRequest(&req); err != nil {
		log.Warn().
			Err(err).
			Str("api_key", req.APIKey).
			Str("base_asset", req.BaseAsset).
			Str("quote_asset", req.QuoteAsset).
			Str("order_type", req.OrderType).
			Str("ip", c.IP()).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	startTime := time.Now()

	order, err := h.Exchange.CreateOrder(req.APIKey, req.BaseAsset, req.QuoteAsset, req.Amount, req.OrderType)

	latency := time.Since(startTime)
	h.recordLatency(latency)

	if err != nil {
		return mapEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.CreateOrderResponse{
		OrderID:        order.ID,
		Symbol:         order.Symbol,
		Side:           string(order.Side),
		Status:         string(order.Status()),
		Amount:         order.Amount,
		Price:          order.Price,
		NumberOfTrades: order.NumberOfTrades(),
		FillPercent:    order.FillPercent(),
	})
}

func (h *ExchangeHandler) CancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")

	if err := h.Exchange.CancelOrder(orderID); err != nil {
		return mapEngineError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(models.CancelOrderResponse{
		OrderID: orderID,
		Status:  string(engine.StatusCanceled),
	})
}

func (h *ExchangeHandler) GetOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	order, exists := h.Exchange.GetOrder(orderID)
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	orderTrades := order.Trades()
	trades := make([]models.TradeInfo, 0, len(orderTrades))
	for _, trade := range orderTrades {
		trades = append(trades, models.TradeInfo{
			TradeID:   trade.ID,
			OrderID:   trade.OrderID,
			Amount:    trade.Amount,
			Price:     trade.Price,
			Timestamp: trade.Created.UnixMilli(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderStatusResponse{
		OrderID:        order.ID,
		APIKey:         order.APIKey,
		Symbol:         order.Symbol,
		Side:           string(order.Side),
		Status:         string(order.Status()),
		Amount:         order.Amount,
		Price:          order.Price,
		FilledAmount:   order.FilledAmount(),
		NumberOfTrades: order.NumberOfTrades(),
		FillPercent:    order.FillPercent(),
		Trades:         trades,
		Timestamp:      order.Created.UnixMilli(),
	})
}

func (h *ExchangeHandler) ListStrategies(c *fiber.Ctx) error {
	snapshots := h.Exchange.StrategySnapshots()

	strategies := make([]models.StrategyInfo, 0, len(snapshots))
	for _, s := range snapshots {
		strategies = append(strategies, models.StrategyInfo{
			Name:            s.Name,
			Symbol:          s.Symbol,
			Description:     s.Description,
			Status:          string(s.Status),
			StatusChangedAt: s.StatusChangedAt.UnixMilli(),
			Buys:            s.Buys,
			Sells:           s.Sells,
			Price:           s.Price,
			Cursor:          s.Cursor,
			IsInfinite:      s.IsInfinite,
		})
	}

	return c.Status(fiber.StatusOK).JSON(strategies)
}

func (h *ExchangeHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()
	stats := h.Exchange.Stats()

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:           "healthy",
		UptimeSeconds:    int64(uptime),
		ActiveStrategies: stats.Strategies,
		ActiveAccounts:   stats.Accounts,
		OpenOrders:       stats.OpenOrders,
	})
}

func (h *ExchangeHandler) Metrics(c *fiber.Ctx) error {
	stats := h.Exchange.Stats()
	p50, p99, p999 := h.calculateLatencyPercentiles()
	throughput := h.calculateThroughput(stats.OrdersCreated)

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersCreated:          stats.OrdersCreated,
		OrdersFilled:           stats.OrdersFilled,
		OrdersCanceled:         stats.OrdersCanceled,
		OpenOrders:             stats.OpenOrders,
		TradesExecuted:         stats.TradesExecuted,
		LatencyP50Ms:           p50,
		LatencyP99Ms:           p99,
		LatencyP999Ms:          p999,
		ThroughputOrdersPerSec: throughput,
	})
}

func (h *ExchangeHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	// edge case: maintain rolling window by removing oldest measurements
	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *ExchangeHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	defer h.latenciesMu.RUnlock()

	if len(h.latencies) == 0 {
		return 0, 0, 0
	}

	latenciesCopy := make([]time.Duration, len(h.latencies))
	copy(latenciesCopy, h.latencies)

	sort.Slice(latenciesCopy, func(i, j int) bool {
		return latenciesCopy[i] < latenciesCopy[j]
	})

	p50Index := int(float64(len(latenciesCopy)) * 0.50)
	p99Index := int(float64(len(latenciesCopy)) * 0.99)
	p999Index := int(float64(len(latenciesCopy)) * 0.999)

	// edge case: ensure indices are within bounds
	if p50Index >= len(latenciesCopy) {
		p50Index = len(latenciesCopy) - 1
	}
	if p99Index >= len(latenciesCopy) {
		p99Index = len(latenciesCopy) - 1
	}
	if p999Index >= len(latenciesCopy) {
		p999Index = len(latenciesCopy) - 1
	}

	p50 = float64(latenciesCopy[p50Index].Nanoseconds()) / 1e6
	p99 = float64(latenciesCopy[p99Index].Nanoseconds()) / 1e6
	p999 = float64(latenciesCopy[p999Index].Nanoseconds()) / 1e6

	return p50, p99, p999
}

func (h *ExchangeHandler) calculateThroughput(ordersCreated int64) float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(ordersCreated) / uptime
}

func toBalanceInfo(balances map[string]engine.AssetBalance) map[string]models.BalanceInfo {
	info := make(map[string]models.BalanceInfo, len(balances))
	for asset, balance := range balances {
		info[asset] = models.BalanceInfo{
			Available: balance.Available,
			Frozen:    balance.Frozen,
		}
	}
	return info
}

func mapEngineError(c *fiber.Ctx, err error) error {
	var unknownAccount *engine.UnknownAccountError
	var unknownStrategy *engine.UnknownStrategyError
	var orderNotFound *engine.OrderNotFoundError
	var invalidType *engine.InvalidOrderTypeError
	var invalidAmount *engine.InvalidAmountError
	var insufficient *engine.InsufficientBalanceError
	var orderState *engine.OrderStateError

	switch {
	case errors.As(err, &unknownAccount), errors.As(err, &unknownStrategy), errors.As(err, &orderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &invalidType), errors.As(err, &invalidAmount), errors.As(err, &insufficient), errors.As(err, &orderState):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("Unexpected engine error")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Internal server error"})
	}
}

func validateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if req.APIKey == "" {
		return &ValidationError{Message: "Invalid order: api_key is required"}
	}

	if req.BaseAsset == "" || req.QuoteAsset == "" {
		return &ValidationError{Message: "Invalid order: base_asset and quote_asset are required"}
	}

	if req.OrderType != "BUY" && req.OrderType != "SELL" {
		return &ValidationError{Message: "Invalid order: order_type must be BUY or SELL"}
	}

	if req.Amount <= 0 {
		return &ValidationError{Message: "Invalid order: amount must be positive"}
	}

	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
