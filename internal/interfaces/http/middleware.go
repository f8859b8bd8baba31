package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/domain/entity"
)

const claimsContextKey = "claims"

// loggingMiddleware logs every request after it is served
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.recorder.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// authMiddleware validates the bearer token and stores the claims on both
// the gin context and the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.logger.Info("Rejected token", "error", err, "client_ip", c.ClientIP())
			abort(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}

		c.Set(claimsContextKey, claims)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// requireAdmin lets only admin tokens through
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.ClaimsFromContext(c.Request.Context())
		if claims == nil || claims.Role != entity.RoleAdmin {
			abort(c, http.StatusForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}
