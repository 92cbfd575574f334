package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/auth"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/service"
)

type Handler struct {
	authSvc     *service.AuthService
	members     *service.MemberService
	departments *service.DepartmentService
	cells       *service.CellService
	users       *service.UserService
	summary     *service.SummaryService
	export      *service.ExportService

	tokens *auth.TokenManager

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger, tokens *auth.TokenManager) *Handler {
	return &Handler{
		logger: logger,
		tokens: tokens,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithAuthService(s *service.AuthService) *Handler {
	h.authSvc = s
	return h
}

func (h *Handler) WithMemberService(s *service.MemberService) *Handler {
	h.members = s
	return h
}

func (h *Handler) WithDepartmentService(s *service.DepartmentService) *Handler {
	h.departments = s
	return h
}

func (h *Handler) WithCellService(s *service.CellService) *Handler {
	h.cells = s
	return h
}

func (h *Handler) WithUserService(s *service.UserService) *Handler {
	h.users = s
	return h
}

func (h *Handler) WithSummaryService(s *service.SummaryService) *Handler {
	h.summary = s
	return h
}

func (h *Handler) WithExportService(s *service.ExportService) *Handler {
	h.export = s
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.healthChecker.HealthCheck())

	e.POST("/auth/login", h.Login)
	e.POST("/auth/register", h.Register)

	userSecurity := e.Group("", AuthMiddleware(h.tokens, model.RoleMember, model.RoleAdmin))

	userSecurity.GET("/members", h.ListMembers)
	userSecurity.POST("/members", h.CreateMember)
	userSecurity.PUT("/members/:id", h.UpdateMember)
	userSecurity.DELETE("/members/:id", h.DeleteMember)
	userSecurity.GET("/members/export", h.ExportMembers)

	userSecurity.GET("/departments", h.ListDepartments)
	userSecurity.POST("/departments", h.CreateDepartment)
	userSecurity.PUT("/departments/:id", h.RenameDepartment)
	userSecurity.DELETE("/departments/:id", h.DeleteDepartment)
	userSecurity.GET("/departments/:id/members", h.DepartmentMembers)
	userSecurity.PUT("/departments/:id/members", h.SyncDepartmentMembers)

	userSecurity.GET("/cells", h.ListCells)
	userSecurity.POST("/cells", h.CreateCell)
	userSecurity.PUT("/cells/:id", h.UpdateCell)
	userSecurity.DELETE("/cells/:id", h.DeleteCell)

	userSecurity.GET("/summary", h.GetSummary)

	userSecurity.GET("/users/me", h.Me)
	userSecurity.PUT("/users/me/password", h.ChangePassword)

	adminSecurity := e.Group("", AuthMiddleware(h.tokens, model.RoleAdmin))

	adminSecurity.GET("/users", h.ListUsers)
	adminSecurity.POST("/users", h.CreateUser)
	adminSecurity.PUT("/users/:id", h.UpdateUser)
	adminSecurity.DELETE("/users/:id", h.DeleteUser)
}

type errorResponse struct {
	Error *service.Error `json:"error"`
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func (h *Handler) pathID(e echo.Context) (int64, *service.Error) {
	id, err := strconv.ParseInt(e.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, service.NewError(service.ErrorCodeInvalidBody, "id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := errorResponse{Error: err}

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeInvalidBody, service.ErrorCodeBadReference, service.ErrorCodeSelfDelete:
		return e.JSON(http.StatusBadRequest, response)
	case service.ErrorCodeNameTaken, service.ErrorCodeUsernameTaken, service.ErrorCodeLeaderTaken:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodeInvalidCredentials, service.ErrorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeForbidden:
		return e.JSON(http.StatusForbidden, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
