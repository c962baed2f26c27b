package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statementHandler handles statement imports and line listings.
type statementHandler struct {
	statementService portssvc.StatementSvcFacade
}

func newStatementHandler(ss portssvc.StatementSvcFacade) *statementHandler {
	return &statementHandler{statementService: ss}
}

// importStatement godoc
// @Summary Import a bank statement batch
// @Description Appends the rows as UNMATCHED lines and, unless autoMatch is false, runs auto-matching.
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   period_id path string true "Period ID"
// @Param   batch body dto.ImportStatementRequest true "Statement batch"
// @Success 202 {object} dto.ImportStatementResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Batch already imported or period not open"
// @Failure 500 {object} map[string]string "Failed to import statement"
// @Security BearerAuth
// @Router /periods/{period_id}/statements [post]
func (h *statementHandler) importStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	var req dto.ImportStatementRequest
	if !bindJSON(c, logger, &req, "ImportStatement") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("batch_ref", req.BatchRef))
	logger.Info("Received statement batch", slog.Int("rows", len(req.Rows)))

	resp, err := h.statementService.ImportStatement(c.Request.Context(), c.Param("period_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "import statement")
		return
	}

	logger.Info("Statement imported", slog.Int("imported", resp.ImportedCount), slog.Int("matched", resp.Matched), slog.Int("suspense", resp.Suspense))
	c.JSON(http.StatusAccepted, resp)
}

// listLines godoc
// @Summary List statement lines of a period
// @Description Ordered by value date then line id. Follow nextToken to page.
// @Tags statements
// @Produce  json
// @Param   period_id path string true "Period ID"
// @Param   status query string false "UNMATCHED, MATCHED or SUSPENSE"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Cursor returned by the previous page"
// @Success 200 {object} dto.ListLinesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to list lines"
// @Security BearerAuth
// @Router /periods/{period_id}/lines [get]
func (h *statementHandler) listLines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}
	var params dto.ListLinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for ListLines", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.statementService.ListLines(c.Request.Context(), c.Param("period_id"), params)
	if err != nil {
		respondError(c, logger, err, "list lines")
		return
	}
	c.JSON(http.StatusOK, resp)
}
