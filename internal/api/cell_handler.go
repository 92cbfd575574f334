package api

import (
	"net/http"

	"github.com/aarondl/opt/omitnull"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/service"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

func (h *Handler) ListCells(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	cells, err := h.cells.List(e.Request().Context())
	if err != nil {
		l.Error("failed to list cells", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, cells)
}

func (h *Handler) CreateCell(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name         string  `json:"name" validate:"required"`
		LeaderID     *int64  `json:"leader_id"`
		Neighborhood *string `json:"neighborhood"`
		Street       *string `json:"street"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating cell", zap.String("name", req.Name))

	cell, err := h.cells.Create(e.Request().Context(), &service.CellCreate{
		Name:         req.Name,
		LeaderID:     req.LeaderID,
		Neighborhood: req.Neighborhood,
		Street:       req.Street,
	})
	if err != nil {
		l.Error("failed to create cell", zap.String("name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, cell)
}

func (h *Handler) UpdateCell(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	cellID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	var req struct {
		Name         *string              `json:"name"`
		LeaderID     omitnull.Val[int64]  `json:"leader_id"`
		Neighborhood omitnull.Val[string] `json:"neighborhood"`
		Street       omitnull.Val[string] `json:"street"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("updating cell", zap.Int64("cell_id", cellID))

	err := h.cells.Update(e.Request().Context(), cellID, &service.CellUpdate{
		Name:         req.Name,
		LeaderID:     req.LeaderID,
		Neighborhood: req.Neighborhood,
		Street:       req.Street,
	})
	if err != nil {
		l.Error("failed to update cell", zap.Int64("cell_id", cellID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteCell(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	cellID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	l.Info("deleting cell", zap.Int64("cell_id", cellID))

	if err := h.cells.Delete(e.Request().Context(), cellID); err != nil {
		l.Error("failed to delete cell", zap.Int64("cell_id", cellID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}
