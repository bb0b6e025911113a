// Package admin exposes the local management API: runtime settings,
// relay status, and health.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stellarelay/internal/constants"
	"stellarelay/internal/logger"
	"stellarelay/internal/settings"
	"stellarelay/pkg/errors"
	"stellarelay/pkg/health"
)

// SettingsStore is the admin view of the settings store.
type SettingsStore interface {
	Snapshot() settings.Settings
	Apply(update settings.Update) (settings.Settings, error)
}

type BaseHandler struct {
	Logger logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
	store   SettingsStore
	health  *health.CheckerRegistry
	started time.Time
}

func NewHandler(store SettingsStore, registry *health.CheckerRegistry, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{Logger: log},
		store:       store,
		health:      registry,
		started:     time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/settings", h.GetSettings)
		v1.PUT("/settings", h.UpdateSettings)
		v1.GET("/status", h.GetStatus)
	}

	router.GET("/health", h.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var update settings.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	updated, err := h.store.Apply(update)
	if err != nil {
		h.HandleError(c, errors.ErrValidation.WithCause(err).WithDetail("message", err.Error()))
		return
	}

	c.JSON(http.StatusOK, updated)
}

type statusResponse struct {
	Service       string `json:"service"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Enabled       bool   `json:"enabled"`
	SystemLookup  bool   `json:"system_lookup"`
	DevMode       bool   `json:"dev_mode"`
}

func (h *Handler) GetStatus(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, statusResponse{
		Service:       constants.RelayName,
		Version:       constants.RelayVersion,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Enabled:       snap.Enabled,
		SystemLookup:  snap.SystemLookup,
		DevMode:       snap.DevMode,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	result := h.health.Check(c.Request.Context())

	status := http.StatusOK
	if result.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
