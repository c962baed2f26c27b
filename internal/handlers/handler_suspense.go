package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// suspenseHandler handles operator actions on suspense items.
type suspenseHandler struct {
	suspenseService portssvc.SuspenseSvcFacade
}

func newSuspenseHandler(ss portssvc.SuspenseSvcFacade) *suspenseHandler {
	return &suspenseHandler{suspenseService: ss}
}

// registerSuspenseRoutes registers the /suspense routes.
func registerSuspenseRoutes(rg *gin.RouterGroup, ss portssvc.SuspenseSvcFacade) {
	h := newSuspenseHandler(ss)

	items := rg.Group("/suspense")
	{
		items.POST("/:item_id/assign", h.assign)
		items.POST("/:item_id/skip", h.skip)
		items.POST("/:item_id/write-off", h.writeOff)
		items.POST("/:item_id/convert", h.convert)
	}
}

// listSuspense godoc
// @Summary List a period's suspense items
// @Tags suspense
// @Produce  json
// @Param   period_id path string true "Period ID"
// @Param   includeResolved query bool false "Include items with a final outcome"
// @Success 200 {object} dto.ListSuspenseResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 500 {object} map[string]string "Failed to list suspense items"
// @Security BearerAuth
// @Router /periods/{period_id}/suspense [get]
func (h *suspenseHandler) listSuspense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period_id", c.Param("period_id")))
	if _, ok := requireUser(c, logger); !ok {
		return
	}
	var params dto.ListSuspenseParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for ListSuspense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.suspenseService.ListSuspenseItems(c.Request.Context(), c.Param("period_id"), params)
	if err != nil {
		respondError(c, logger, err, "list suspense items")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// assign godoc
// @Summary Assign a suspense item to an operator
// @Tags suspense
// @Accept  json
// @Produce  json
// @Param   item_id path string true "Suspense item ID"
// @Param   request body dto.AssignSuspenseRequest true "Assignee"
// @Success 200 {object} dto.SuspenseItemResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Suspense item not found"
// @Failure 409 {object} map[string]string "Item already resolved"
// @Failure 500 {object} map[string]string "Failed to assign suspense item"
// @Security BearerAuth
// @Router /suspense/{item_id}/assign [post]
func (h *suspenseHandler) assign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("item_id", c.Param("item_id")))
	var req dto.AssignSuspenseRequest
	if !bindJSON(c, logger, &req, "AssignSuspenseItem") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.suspenseService.AssignSuspenseItem(c.Request.Context(), c.Param("item_id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "assign suspense item")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// skip godoc
// @Summary Resolve a suspense item by skipping it
// @Tags suspense
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   item_id path string true "Suspense item ID"
// @Param   request body dto.ResolveSuspenseRequest true "Justification"
// @Success 200 {object} dto.SuspenseItemResponse
// @Failure 400 {object} map[string]string "Justification missing"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Suspense item not found"
// @Failure 409 {object} map[string]string "Item already resolved or period not open"
// @Failure 500 {object} map[string]string "Failed to skip suspense item"
// @Security BearerAuth
// @Router /suspense/{item_id}/skip [post]
func (h *suspenseHandler) skip(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("item_id", c.Param("item_id")))
	var req dto.ResolveSuspenseRequest
	if !bindJSON(c, logger, &req, "SkipSuspenseItem") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.suspenseService.ResolveBySkip(c.Request.Context(), c.Param("item_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "skip suspense item")
		return
	}

	logger.Info("Suspense item skipped")
	c.JSON(http.StatusOK, resp)
}

// writeOff godoc
// @Summary Resolve a suspense item by writing it off
// @Tags suspense
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   item_id path string true "Suspense item ID"
// @Param   request body dto.ResolveSuspenseRequest true "Justification"
// @Success 200 {object} dto.SuspenseItemResponse
// @Failure 400 {object} map[string]string "Justification missing"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Suspense item not found"
// @Failure 409 {object} map[string]string "Item already resolved or period not open"
// @Failure 500 {object} map[string]string "Failed to write off suspense item"
// @Security BearerAuth
// @Router /suspense/{item_id}/write-off [post]
func (h *suspenseHandler) writeOff(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("item_id", c.Param("item_id")))
	var req dto.ResolveSuspenseRequest
	if !bindJSON(c, logger, &req, "WriteOffSuspenseItem") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.suspenseService.ResolveByWriteOff(c.Request.Context(), c.Param("item_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "write off suspense item")
		return
	}

	logger.Info("Suspense item written off")
	c.JSON(http.StatusOK, resp)
}

// convert godoc
// @Summary Resolve a suspense item by creating a ledger movement
// @Description Creates a movement mirroring the line and links the two.
// @Tags suspense
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency token"
// @Param   item_id path string true "Suspense item ID"
// @Param   request body dto.ConvertSuspenseRequest false "Movement overrides"
// @Success 200 {object} dto.SuspenseItemResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Suspense item not found"
// @Failure 409 {object} map[string]string "Item already resolved or period not open"
// @Failure 500 {object} map[string]string "Failed to convert suspense item"
// @Security BearerAuth
// @Router /suspense/{item_id}/convert [post]
func (h *suspenseHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("item_id", c.Param("item_id")))
	var req dto.ConvertSuspenseRequest
	// the body is optional
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req, "ConvertSuspenseItem") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.suspenseService.ResolveByMovementCreation(c.Request.Context(), c.Param("item_id"), req, userID, middleware.GetIdempotencyKey(c))
	if err != nil {
		respondError(c, logger, err, "convert suspense item")
		return
	}

	if resp.MovementID != nil {
		logger = logger.With(slog.String("movement_id", *resp.MovementID))
	}
	logger.Info("Suspense item converted to ledger movement")
	c.JSON(http.StatusOK, resp)
}
