package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aarondl/opt/omitnull"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/service"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ListMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	filter := &model.MemberFilter{Name: e.QueryParam("name")}

	var svcErr *service.Error
	if filter.DepartmentID, svcErr = queryInt64(e, "department_id"); svcErr != nil {
		return h.transportError(e, svcErr)
	}
	if filter.CellID, svcErr = queryInt64(e, "cell_id"); svcErr != nil {
		return h.transportError(e, svcErr)
	}
	if filter.Page, svcErr = queryInt64(e, "page"); svcErr != nil {
		return h.transportError(e, svcErr)
	}
	if filter.Limit, svcErr = queryInt64(e, "limit"); svcErr != nil {
		return h.transportError(e, svcErr)
	}

	page, err := h.members.List(e.Request().Context(), filter)
	if err != nil {
		l.Error("failed to list members", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, page)
}

func (h *Handler) CreateMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		FullName      string  `json:"full_name" validate:"required"`
		BirthDate     *string `json:"birth_date"`
		Phone         *string `json:"phone"`
		CellID        *int64  `json:"cell_id"`
		DepartmentIDs []int64 `json:"department_ids"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating member", zap.String("full_name", req.FullName))

	member, err := h.members.Create(e.Request().Context(), &service.MemberCreate{
		FullName:      req.FullName,
		BirthDate:     req.BirthDate,
		Phone:         req.Phone,
		CellID:        req.CellID,
		DepartmentIDs: req.DepartmentIDs,
	})
	if err != nil {
		l.Error("failed to create member", zap.String("full_name", req.FullName), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, member)
}

func (h *Handler) UpdateMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	memberID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	var req struct {
		FullName      *string              `json:"full_name"`
		BirthDate     omitnull.Val[string] `json:"birth_date"`
		Phone         omitnull.Val[string] `json:"phone"`
		CellID        omitnull.Val[int64]  `json:"cell_id"`
		DepartmentIDs *[]int64             `json:"department_ids"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("updating member", zap.Int64("member_id", memberID))

	err := h.members.Update(e.Request().Context(), memberID, &service.MemberUpdate{
		FullName:      req.FullName,
		BirthDate:     req.BirthDate,
		Phone:         req.Phone,
		CellID:        req.CellID,
		DepartmentIDs: req.DepartmentIDs,
	})
	if err != nil {
		l.Error("failed to update member", zap.Int64("member_id", memberID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	memberID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	l.Info("deleting member", zap.Int64("member_id", memberID))

	if err := h.members.Delete(e.Request().Context(), memberID); err != nil {
		l.Error("failed to delete member", zap.Int64("member_id", memberID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ExportMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	l.Info("exporting members")

	buf, filename, err := h.export.Members(e.Request().Context())
	if err != nil {
		l.Error("failed to export members", zap.Any("error", err))
		return h.transportError(e, err)
	}

	e.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return e.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func queryInt64(e echo.Context, name string) (int64, *service.Error) {
	raw := e.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, service.NewError(service.ErrorCodeInvalidBody, name+" must be a non-negative integer")
	}
	return v, nil
}
