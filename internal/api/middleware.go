package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/auth"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/service"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const claimsContextKey = "token_claims"

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			c.Set("logger", reqLogger)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// AuthMiddleware verifies the bearer token and restricts the route to the
// given roles. A missing token is 401; a bad token or a disallowed role is 403.
func AuthMiddleware(tokens *auth.TokenManager, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header || token == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{
					Error: service.NewError(service.ErrorCodeUnauthorized, "missing bearer token"),
				})
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				return c.JSON(http.StatusForbidden, errorResponse{
					Error: service.NewError(service.ErrorCodeForbidden, "invalid or expired token"),
				})
			}

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, errorResponse{
					Error: service.NewError(service.ErrorCodeForbidden, "insufficient role"),
				})
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

func ClaimsFromContext(c echo.Context) *auth.TokenClaims {
	if claims, ok := c.Get(claimsContextKey).(*auth.TokenClaims); ok {
		return claims
	}
	return &auth.TokenClaims{}
}

func GetLoggerFromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
