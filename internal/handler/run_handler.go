package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/middleware"
	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
	"github.com/noah-isme/ctt-evolver/pkg/response"
)

type runProgressReader interface {
	Progress() dto.RunProgress
}

type runHistoryReader interface {
	List(ctx context.Context, query dto.RunHistoryQuery) ([]models.SolverRun, error)
	Best(ctx context.Context) (*dto.SolutionSnapshot, error)
}

// RunHandler exposes solver run status.
type RunHandler struct {
	progress runProgressReader
	history  runHistoryReader
}

// NewRunHandler constructs the handler.
func NewRunHandler(progress runProgressReader, history runHistoryReader) *RunHandler {
	return &RunHandler{progress: progress, history: history}
}

// Current godoc
// @Summary Live status of the running solver
// @Tags Runs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /runs/current [get]
func (h *RunHandler) Current(c *gin.Context) {
	response.OK(c, h.progress.Progress())
}

// List godoc
// @Summary Recent solver runs
// @Tags Runs
// @Produce json
// @Param instance query string false "Instance name"
// @Param limit query int false "Maximum number of runs"
// @Success 200 {object} response.Envelope
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	query := dto.RunHistoryQuery{Instance: strings.TrimSpace(c.Query("instance"))}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a number"))
			return
		}
		query.Limit = limit
	}
	runs, err := h.history.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, middleware.Meta(c, map[string]interface{}{"count": len(runs)}))
}

// Best godoc
// @Summary Best timetable of the last finished run
// @Tags Runs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /runs/best [get]
func (h *RunHandler) Best(c *gin.Context) {
	snapshot, err := h.history.Best(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, true)
	response.JSON(c, http.StatusOK, snapshot, middleware.Meta(c, nil))
}
