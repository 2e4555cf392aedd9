package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/khadijabh/cafe-store/internal/database"
	"go.uber.org/zap"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string, errs any) {
	c.JSON(status, response{Success: false, Message: message, Errors: errs})
}

// bindJSON decodes and validates the request body into dst, writing a 422
// with per-field messages (or a 400 for malformed JSON) on failure.
func (a *API) bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		respondError(c, http.StatusUnprocessableEntity, "validation failed", fields)
		return false
	}

	respondError(c, http.StatusBadRequest, "invalid request body", nil)
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "futuredate":
		return "must be a future date"
	default:
		return "is invalid"
	}
}

// respondStoreError translates store failures into the stable error
// envelope. Unexpected errors are logged and, outside development, replaced
// with a generic message.
func (a *API) respondStoreError(c *gin.Context, err error) {
	var stockErr *database.StockError

	switch {
	case errors.As(err, &stockErr):
		respondError(c, http.StatusBadRequest, "insufficient stock", gin.H{"items": stockErr.Shortages})
	case errors.Is(err, database.ErrInsufficientStock):
		respondError(c, http.StatusBadRequest, "insufficient stock", nil)
	case errors.Is(err, database.ErrEmptyCart):
		respondError(c, http.StatusBadRequest, "cart is empty", nil)
	case errors.Is(err, database.ErrOrderNotPending):
		respondError(c, http.StatusBadRequest, "only pending orders can be cancelled", nil)
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrCartLineNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, database.ErrProductInUse),
		errors.Is(err, database.ErrCategoryNotEmpty):
		respondError(c, http.StatusConflict, err.Error(), nil)
	default:
		a.Logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message := "internal server error"
		if !a.Cfg.IsProduction() {
			message = err.Error()
		}
		respondError(c, http.StatusInternalServerError, message, nil)
	}
}
