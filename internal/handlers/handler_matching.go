package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// matchingHandler handles requests to the matching engine.
type matchingHandler struct {
	matchingService portssvc.MatchingSvcFacade
}

func newMatchingHandler(ms portssvc.MatchingSvcFacade) *matchingHandler {
	return &matchingHandler{matchingService: ms}
}

// registerLineRoutes registers the /lines routes.
func registerLineRoutes(rg *gin.RouterGroup, ms portssvc.MatchingSvcFacade) {
	h := newMatchingHandler(ms)

	lines := rg.Group("/lines")
	{
		lines.GET("/:line_id/candidates", h.listCandidates)
		lines.POST("/:line_id/match", h.manualMatch)
		lines.DELETE("/:line_id/match", h.unmatch)
	}
}

// autoMatch godoc
// @Summary Run auto-matching over a period
// @Description Links every UNMATCHED line with a single unambiguous candidate and moves the rest to suspense.
// @Tags matching
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   period_id path string true "Period ID"
// @Success 200 {object} dto.AutoMatchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Period not open or concurrent request"
// @Failure 500 {object} map[string]string "Failed to auto-match"
// @Security BearerAuth
// @Router /periods/{period_id}/auto-match [post]
func (h *matchingHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.matchingService.AutoMatch(c.Request.Context(), c.Param("period_id"), userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "auto-match")
		return
	}

	logger.Info("Auto-match finished", slog.Int("matched", resp.Matched), slog.Int("suspense", resp.Suspense))
	c.JSON(http.StatusOK, resp)
}

// listCandidates godoc
// @Summary List candidate movements for a line
// @Description Same-amount unlinked movements in the date window, best first.
// @Tags matching
// @Produce  json
// @Param   line_id path string true "Line ID"
// @Success 200 {object} dto.ListCandidatesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Line not found"
// @Failure 500 {object} map[string]string "Failed to list candidates"
// @Security BearerAuth
// @Router /lines/{line_id}/candidates [get]
func (h *matchingHandler) listCandidates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("line_id", c.Param("line_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	resp, err := h.matchingService.Candidates(c.Request.Context(), c.Param("line_id"))
	if err != nil {
		respondError(c, logger, err, "list candidates")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// manualMatch godoc
// @Summary Match a line manually
// @Description Links the line to movements whose amounts sum to the line amount exactly.
// @Tags matching
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   line_id path string true "Line ID"
// @Param   request body dto.ManualMatchRequest true "Movements to link"
// @Success 200 {object} dto.MatchLinkResponse
// @Failure 400 {object} map[string]interface{} "Validation error or amount mismatch"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Line or movement not found"
// @Failure 409 {object} map[string]string "Already matched, period not open or concurrent request"
// @Failure 422 {object} map[string]string "Idempotency key reused"
// @Failure 500 {object} map[string]string "Failed to match line"
// @Security BearerAuth
// @Router /lines/{line_id}/match [post]
func (h *matchingHandler) manualMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("line_id", c.Param("line_id")))
	var req dto.ManualMatchRequest
	if !bindJSON(c, logger, &req, "ManualMatch") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.matchingService.ManualMatch(c.Request.Context(), c.Param("line_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "match line")
		return
	}

	logger.Info("Line matched manually", slog.String("link_id", resp.LinkID), slog.Int("movements", len(resp.MovementIDs)))
	c.JSON(http.StatusOK, resp)
}

// unmatch godoc
// @Summary Remove a line's match
// @Tags matching
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   line_id path string true "Line ID"
// @Success 200 {object} dto.UnmatchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Line not found or not matched"
// @Failure 409 {object} map[string]string "Period not open or concurrent request"
// @Failure 500 {object} map[string]string "Failed to unmatch line"
// @Security BearerAuth
// @Router /lines/{line_id}/match [delete]
func (h *matchingHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("line_id", c.Param("line_id")))
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.matchingService.Unmatch(c.Request.Context(), c.Param("line_id"), userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "unmatch line")
		return
	}

	logger.Info("Line unmatched", slog.String("link_id", resp.RemovedLink.LinkID), slog.String("line_status", string(resp.LineStatus)))
	c.JSON(http.StatusOK, resp)
}
