// Package api serves the calculation API over gin.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
	"github.com/couchcryptid/asteroid-impact-engine/internal/repository"
)

// ScenarioStore is the scenario history the handlers read and write.
type ScenarioStore interface {
	Save(ctx context.Context, result domain.ScenarioResult) error
	Get(ctx context.Context, id string) (domain.ScenarioResult, error)
	ListRecent(ctx context.Context, limit int) ([]repository.ScenarioSummary, error)
}

// Handler holds the collaborators behind the API routes.
type Handler struct {
	deps   domain.Dependencies
	store  ScenarioStore
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil store disables the history routes.
func NewHandler(deps domain.Dependencies, store ScenarioStore, logger *slog.Logger) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Handler{deps: deps, store: store, logger: logger}
}

// Register mounts the routes under /api/v1.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.POST("/impact", h.computeImpact)
	v1.POST("/mission", h.assessMission)
	v1.GET("/missions/rank", h.rankStrategies)
	v1.GET("/materials", h.listMaterials)
	v1.GET("/strategies", h.listStrategies)
	v1.GET("/presets", h.listPresets)
	v1.GET("/scenarios", h.listScenarios)
	v1.GET("/scenarios/:id", h.getScenario)
}

func (h *Handler) computeImpact(c *gin.Context) {
	var req domain.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := domain.BuildScenario(c.Request.Context(), req, h.deps)
	if err != nil {
		if domain.IsInvalidParameter(err) ||
			errors.Is(err, domain.ErrUnknownMaterial) ||
			errors.Is(err, domain.ErrPlaceUnresolved) ||
			errors.Is(err, domain.ErrUnknownStrategy) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("compute scenario failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute scenario"})
		return
	}

	if h.store != nil {
		if err := h.store.Save(c.Request.Context(), result); err != nil {
			h.logger.Warn("record scenario failed", "scenario_id", result.ID, "error", err)
		}
	}
	c.JSON(http.StatusOK, result)
}

type missionBody struct {
	LeadTimeDays float64 `json:"lead_time_days" binding:"gt=0"`
	Diameter     float64 `json:"diameter" binding:"gt=0"`
	StrategyID   string  `json:"strategy_id" binding:"required"`
}

func (h *Handler) assessMission(c *gin.Context) {
	var body missionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := domain.AssessMission(body.LeadTimeDays, body.Diameter, body.StrategyID)
	if errors.Is(err, domain.ErrUnknownStrategy) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assess mission"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) rankStrategies(c *gin.Context) {
	lead, err := positiveQuery(c, "lead_time_days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	diameter, err := positiveQuery(c, "diameter")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": domain.RankStrategies(lead, diameter)})
}

func (h *Handler) listMaterials(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"materials": domain.Materials})
}

func (h *Handler) listStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": domain.Strategies})
}

func (h *Handler) listPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": domain.FamousImpactors})
}

func (h *Handler) listScenarios(c *gin.Context) {
	if h.store == nil {
		historyDisabled(c)
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	scenarios, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list scenarios failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch scenarios"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios, "count": len(scenarios)})
}

func (h *Handler) getScenario(c *gin.Context) {
	if h.store == nil {
		historyDisabled(c)
		return
	}

	id := c.Param("id")
	result, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "scenario not found"})
		return
	}
	if err != nil {
		h.logger.Error("get scenario failed", "scenario_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch scenario"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func historyDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scenario history disabled"})
}

func positiveQuery(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, errors.New(name + " must be a positive number")
	}
	return v, nil
}
