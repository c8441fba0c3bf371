// Package api provides HTTP handlers for the risk engine.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/middleware"
	"github.com/riskmesh/riskmesh/internal/models"
)

// EventHandler serves the scoring endpoint.
type EventHandler struct {
	engine   EventProcessor
	log      *logrus.Logger
	deadline time.Duration
}

// NewEventHandler creates an EventHandler. deadline bounds one scoring pass.
func NewEventHandler(engine EventProcessor, log *logrus.Logger, deadline time.Duration) *EventHandler {
	if deadline <= 0 {
		deadline = 200 * time.Millisecond
	}

	return &EventHandler{engine: engine, log: log, deadline: deadline}
}

// Score handles POST /api/v1/event: scores one transaction event.
func (h *EventHandler) Score(c *gin.Context) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")

		return
	}

	principal := middleware.PrincipalFrom(c).Name

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.deadline)
	defer cancel()

	result, err := h.engine.Process(ctx, principal, ev)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			respondError(c, http.StatusGatewayTimeout, ErrCodeTimeout, "scoring deadline exceeded")
		case errors.Is(err, models.ErrInvariant):
			h.log.WithError(err).Error("scoring failed")
			respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		default:
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		}

		return
	}

	c.JSON(http.StatusOK, result)
}
