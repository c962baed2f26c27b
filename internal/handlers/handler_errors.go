package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error to a status and a JSON body. Client errors carry the message
// and any structured detail; anything unrecognised is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *slog.Logger, err error, action string) {
	var (
		mismatch   *apperrors.AmountMismatchError
		unresolved *apperrors.UnresolvedItemsError
		missing    *apperrors.MissingJustificationError
		transition *apperrors.InvalidStateTransitionError
		appErr     *apperrors.AppError
	)

	switch {
	case errors.As(err, &mismatch):
		logger.Warn(action+": amount mismatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "expected": mismatch.Expected, "actual": mismatch.Actual})
	case errors.As(err, &unresolved):
		logger.Warn(action+": unresolved items", slog.Int("pending", unresolved.Counts.Pending))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "counts": unresolved.Counts})
	case errors.As(err, &missing):
		logger.Warn(action+": missing justification", slog.Int("pending", missing.Counts.Pending))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "counts": missing.Counts})
	case errors.As(err, &transition):
		logger.Warn(action+": invalid state transition", slog.String("from", transition.From), slog.String("to", transition.To))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "from": transition.From, "to": transition.To})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(action+": validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNotMatched):
		logger.Warn(action+": not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrIdempotencyKeyReuse):
		logger.Warn(action+": idempotency key reused", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConcurrentOperation):
		logger.Warn(action+": operation in progress", slog.String("error", err.Error()))
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateImport),
		errors.Is(err, apperrors.ErrAlreadyMatched),
		errors.Is(err, apperrors.ErrPeriodNotOpen),
		errors.Is(err, apperrors.ErrSuspenseAlreadyResolved),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict):
		logger.Warn(action+": conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500:
		logger.Warn(action+": request rejected", slog.String("error", err.Error()))
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
	default:
		logger.Error(action+": internal error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// requireUser reads the authenticated actor; it writes the 401 itself when missing.
func requireUser(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

func bindJSON(c *gin.Context, logger *slog.Logger, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Warn("Failed to bind JSON for "+op, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}
