package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles HTTP requests about reconciliation periods and their lifecycle.
type periodHandler struct {
	statementService portssvc.StatementSvcFacade
	closingService   portssvc.ClosingSvcFacade
	auditService     portssvc.AuditSvcFacade
}

func newPeriodHandler(ss portssvc.StatementSvcFacade, cs portssvc.ClosingSvcFacade, as portssvc.AuditSvcFacade) *periodHandler {
	return &periodHandler{statementService: ss, closingService: cs, auditService: as}
}

// registerPeriodRoutes registers the /periods routes and the closing endpoint.
func registerPeriodRoutes(rg *gin.RouterGroup, ss portssvc.StatementSvcFacade, ms portssvc.MatchingSvcFacade, sus portssvc.SuspenseSvcFacade, cs portssvc.ClosingSvcFacade, as portssvc.AuditSvcFacade) {
	h := newPeriodHandler(ss, cs, as)
	sh := newStatementHandler(ss)
	mh := newMatchingHandler(ms)
	suh := newSuspenseHandler(sus)

	periods := rg.Group("/periods")
	{
		periods.POST("", h.openPeriod)
		periods.GET("/:period_id", h.getPeriod)
		periods.GET("/:period_id/summary", h.getSummary)
		periods.POST("/:period_id/reopen", h.reopenPeriod)
		periods.GET("/:period_id/audit", h.listAudit)

		periods.POST("/:period_id/statements", sh.importStatement)
		periods.GET("/:period_id/lines", sh.listLines)
		periods.POST("/:period_id/auto-match", mh.autoMatch)
		periods.GET("/:period_id/suspense", suh.listSuspense)
	}

	rg.POST("/reconciliation/close", h.closePeriod)
}

// openPeriod godoc
// @Summary Open a reconciliation period
// @Description Opens the period of an account for the given window, or returns the existing one.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   period body dto.OpenPeriodRequest true "Account and window"
// @Success 200 {object} dto.PeriodResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 500 {object} map[string]string "Failed to open period"
// @Security BearerAuth
// @Router /periods [post]
func (h *periodHandler) openPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenPeriodRequest
	if !bindJSON(c, logger, &req, "OpenPeriod") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_id", req.AccountID))
	logger.Info("Received request to open period")

	period, err := h.statementService.OpenPeriod(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "open period")
		return
	}

	logger.Info("Period opened", slog.String("period_id", period.PeriodID), slog.String("state", string(period.State)))
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// getPeriod godoc
// @Summary Get a reconciliation period
// @Tags periods
// @Produce  json
// @Param   period_id path string true "Period ID"
// @Success 200 {object} dto.PeriodResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to retrieve period"
// @Security BearerAuth
// @Router /periods/{period_id} [get]
func (h *periodHandler) getPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	period, err := h.statementService.GetPeriod(c.Request.Context(), c.Param("period_id"))
	if err != nil {
		respondError(c, logger, err, "retrieve period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

// getSummary godoc
// @Summary Get the closing summary of a period
// @Description Reports the match and suspense counts a close would validate against right now.
// @Tags periods
// @Produce  json
// @Param   period_id path string true "Period ID"
// @Success 200 {object} dto.PeriodSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to summarise period"
// @Security BearerAuth
// @Router /periods/{period_id}/summary [get]
func (h *periodHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	summary, err := h.closingService.GetSummary(c.Request.Context(), c.Param("period_id"))
	if err != nil {
		respondError(c, logger, err, "summarise period")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// closePeriod godoc
// @Summary Close a reconciliation period
// @Description Validates pending items, optionally posts a balancing adjustment and moves the period to COMPLETED or WITH_DIFFERENCES.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   request body dto.ClosePeriodRequest true "Closing request"
// @Success 200 {object} dto.ClosePeriodResponse
// @Failure 400 {object} map[string]interface{} "Validation error or missing justifications"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]interface{} "Unresolved items, invalid transition or concurrent request"
// @Failure 422 {object} map[string]string "Idempotency key reused"
// @Failure 500 {object} map[string]string "Failed to close period"
// @Security BearerAuth
// @Router /reconciliation/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClosePeriodRequest
	if !bindJSON(c, logger, &req, "ClosePeriod") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("period_id", req.StatementID))
	logger.Info("Received request to close period", slog.Bool("force", req.ForzarCierre), slog.Bool("adjust", req.GenerarAjuste))

	resp, err := h.closingService.ClosePeriod(c.Request.Context(), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "close period")
		return
	}

	logger.Info("Period closed", slog.String("state", string(resp.State)), slog.String("total_difference", resp.TotalDifference.String()))
	c.JSON(http.StatusOK, resp)
}

// reopenPeriod godoc
// @Summary Reopen a closed period
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   period_id path string true "Period ID"
// @Param   request body dto.ReopenPeriodRequest true "Reopen reason"
// @Success 200 {object} dto.ReopenPeriodResponse
// @Failure 400 {object} map[string]string "Reason missing"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]interface{} "Period is not closed"
// @Failure 500 {object} map[string]string "Failed to reopen period"
// @Security BearerAuth
// @Router /periods/{period_id}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	var req dto.ReopenPeriodRequest
	if !bindJSON(c, logger, &req, "ReopenPeriod") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.closingService.ReopenPeriod(c.Request.Context(), c.Param("period_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "reopen period")
		return
	}

	logger.Info("Period reopened", slog.String("previous_state", string(resp.PreviousState)))
	c.JSON(http.StatusOK, resp)
}

// listAudit godoc
// @Summary List the audit trail of a period
// @Tags periods
// @Produce  json
// @Param   period_id path string true "Period ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Cursor returned by the previous page"
// @Success 200 {object} dto.ListAuditResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to list audit entries"
// @Security BearerAuth
// @Router /periods/{period_id}/audit [get]
func (h *periodHandler) listAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}
	var params dto.ListAuditParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for ListAudit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.auditService.ListPeriodAudit(c.Request.Context(), c.Param("period_id"), params)
	if err != nil {
		respondError(c, logger, err, "list audit entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}
