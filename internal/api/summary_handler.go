package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/pkg/logger"
)

func (h *Handler) GetSummary(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	summary, err := h.summary.Summary(e.Request().Context())
	if err != nil {
		l.Error("failed to build summary", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, summary)
}
