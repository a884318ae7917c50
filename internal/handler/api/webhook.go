// Package api exposes the signal intake endpoints.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/domain/repository"
	"ChartSentry/internal/service/dedup"
	"ChartSentry/internal/service/ratelimit"
	"ChartSentry/internal/usecase"
	pkghttp "ChartSentry/pkg/http"
	"ChartSentry/pkg/logger"
	"ChartSentry/pkg/queue"
)

// SignalRequest is the webhook payload. Ticker and Symbol are aliases;
// at least one must be present.
type SignalRequest struct {
	Ticker   string  `json:"ticker" validate:"required_without=Symbol"`
	Symbol   string  `json:"symbol" validate:"required_without=Ticker"`
	Signal   string  `json:"signal" validate:"required"`
	Level    string  `json:"level" default:"1m"`
	Price    float64 `json:"price" validate:"omitempty,gte=0"`
	ChartURL string  `json:"chart_url" validate:"omitempty,url"`
}

// WebhookHandler accepts alert webhooks, filters duplicates and hands
// accepted signals to the queue.
type WebhookHandler struct {
	queue           queue.QueueService
	dedup           *dedup.Cache
	limiter         *ratelimit.Limiter
	metrics         repository.Metrics
	logger          *logger.Logger
	perTickerPerMin float64
}

// NewWebhookHandler creates the intake handler. perTickerPerMin caps how
// many signals one ticker may submit per minute; zero disables the cap.
func NewWebhookHandler(q queue.QueueService, d *dedup.Cache, m repository.Metrics, log *logger.Logger, perTickerPerMin float64) *WebhookHandler {
	return &WebhookHandler{
		queue:           q,
		dedup:           d,
		limiter:         ratelimit.New(),
		metrics:         m,
		logger:          log,
		perTickerPerMin: perTickerPerMin,
	}
}

// RegisterRoutes mounts the intake endpoints.
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	e.POST("/webhook", h.Receive)
}

// Health answers liveness probes.
func (h *WebhookHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, pkghttp.StatusResponse{Status: "running"})
}

// Receive handles one alert webhook.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var req SignalRequest
	if errs := pkghttp.ReadAndValidateRequest(c, &req); errs != nil {
		h.metrics.RecordSignal("invalid")
		return c.JSON(http.StatusBadRequest, pkghttp.StatusResponse{
			Status: "error",
			Errors: errs,
		})
	}

	ticker := req.Ticker
	if ticker == "" {
		ticker = req.Symbol
	}

	sig := models.Signal{
		Ticker:     ticker,
		Level:      req.Level,
		Label:      req.Signal,
		Price:      req.Price,
		ChartURL:   req.ChartURL,
		ReceivedAt: time.Now(),
	}

	log := h.logger.With(
		logger.String("ticker", sig.Ticker),
		logger.String("level", sig.Level),
		logger.String("label", sig.Label),
	)

	if h.perTickerPerMin > 0 && !h.limiter.Allow(sig.Ticker, h.perTickerPerMin, h.perTickerPerMin/60) {
		h.metrics.RecordSignal("rate_limited")
		log.Warn("signal rate limited")
		return c.JSON(http.StatusOK, pkghttp.StatusResponse{
			Status:  "ignored",
			Message: "rate limited",
		})
	}

	if !h.dedup.ShouldAccept(sig.DedupKey(), time.Now()) {
		h.metrics.RecordSignal("duplicate")
		log.Info("duplicate signal suppressed", logger.String("key", sig.DedupKey()))
		return c.JSON(http.StatusOK, pkghttp.StatusResponse{
			Status:  "ignored",
			Message: "duplicate signal",
		})
	}

	if err := h.queue.PublishMessage(c.Request().Context(), usecase.SignalMessageType, sig); err != nil {
		h.metrics.RecordSignal("error")
		log.Error("enqueue failed", logger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, pkghttp.StatusResponse{
			Status:  "error",
			Message: "queue unavailable",
		})
	}

	h.metrics.RecordSignal("accepted")
	log.Info("signal queued", logger.Float64("price", sig.Price))
	return c.JSON(http.StatusOK, pkghttp.StatusResponse{Status: "accepted"})
}
