package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/pkg/logger"
)

func (h *Handler) Login(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	token, user, err := h.authSvc.Login(e.Request().Context(), req.Username, req.Password)
	if err != nil {
		l.Warn("login failed", zap.String("username", req.Username), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("registering user", zap.String("username", req.Username))

	user, err := h.authSvc.Register(e.Request().Context(), req.Username, req.Password)
	if err != nil {
		l.Error("failed to register user", zap.String("username", req.Username), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, user)
}

func (h *Handler) Me(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	claims := ClaimsFromContext(e)

	user, err := h.users.Me(e.Request().Context(), claims.UserID)
	if err != nil {
		l.Error("failed to get current user", zap.Int64("user_id", claims.UserID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, user)
}

func (h *Handler) ChangePassword(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	claims := ClaimsFromContext(e)

	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("changing password", zap.Int64("user_id", claims.UserID))

	if err := h.users.ChangePassword(e.Request().Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		l.Error("failed to change password", zap.Int64("user_id", claims.UserID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	users, err := h.users.List(e.Request().Context())
	if err != nil {
		l.Error("failed to list users", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating user", zap.String("username", req.Username), zap.String("role", req.Role))

	user, err := h.users.Create(e.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		l.Error("failed to create user", zap.String("username", req.Username), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	var req struct {
		Username string `json:"username" validate:"required"`
		Role     string `json:"role" validate:"required"`
		Password string `json:"password"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("updating user", zap.Int64("user_id", userID))

	if err := h.users.Update(e.Request().Context(), userID, req.Username, req.Role, req.Password); err != nil {
		l.Error("failed to update user", zap.Int64("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteUser(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID, svcErr := h.pathID(e)
	if svcErr != nil {
		return h.transportError(e, svcErr)
	}

	claims := ClaimsFromContext(e)

	l.Info("deleting user", zap.Int64("user_id", userID), zap.Int64("actor_id", claims.UserID))

	if err := h.users.Delete(e.Request().Context(), claims.UserID, userID); err != nil {
		l.Error("failed to delete user", zap.Int64("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}
