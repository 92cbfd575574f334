package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/pkg/logger"
)

func (h *Handler) ListDepartments(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	departments, err := h.departments.List(e.Request().Context())
	if err != nil {
		l.Error("failed to list departments", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, departments)
}

func (h *Handler) CreateDepartment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name string `json:"name" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating department", zap.String("name", req.Name))

	department, err := h.departments.Create(e.Request().Context(), req.Name)
	if err != nil {
		l.Error("failed to create department", zap.String("name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, department)
}

func (h *Handler) RenameDepartment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	departmentID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	var req struct {
		Name string `json:"name" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("renaming department", zap.Int64("department_id", departmentID), zap.String("name", req.Name))

	if err := h.departments.Rename(e.Request().Context(), departmentID, req.Name); err != nil {
		l.Error("failed to rename department", zap.Int64("department_id", departmentID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteDepartment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	departmentID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	l.Info("deleting department", zap.Int64("department_id", departmentID))

	if err := h.departments.Delete(e.Request().Context(), departmentID); err != nil {
		l.Error("failed to delete department", zap.Int64("department_id", departmentID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DepartmentMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	departmentID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	roster, err := h.departments.Members(e.Request().Context(), departmentID)
	if err != nil {
		l.Error("failed to list department members", zap.Int64("department_id", departmentID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, roster)
}

func (h *Handler) SyncDepartmentMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	departmentID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	var req struct {
		MemberIDs []int64 `json:"member_ids"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("syncing department members",
		zap.Int64("department_id", departmentID),
		zap.Int("member_count", len(req.MemberIDs)))

	if err := h.departments.SyncMembers(e.Request().Context(), departmentID, req.MemberIDs); err != nil {
		l.Error("failed to sync department members", zap.Int64("department_id", departmentID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"synced": len(req.MemberIDs)})
}
