package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/resilience"
)

const tenantContextKey = "tenantContext"

// tenantMiddleware resolves the X-Tenant-ID header into a
// database.TenantContext and stores it on the gin.Context, rejecting
// the request before it reaches a handler if the header is missing.
func tenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, err := database.NewTenantContext(c.GetHeader("X-Tenant-ID"))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(tenantContextKey, tc)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) database.TenantContext {
	return c.MustGet(tenantContextKey).(database.TenantContext)
}

// rateLimitMiddleware applies the named limiter tier, keyed by tenant,
// ahead of every route it wraps. A nil registry (resilience disabled,
// e.g. in tests) makes this a no-op.
func rateLimitMiddleware(limiters *resilience.LimiterRegistry, tier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiters == nil {
			c.Next()
			return
		}
		tc := tenantFrom(c)
		if err := limiters.AllowErr(c.Request.Context(), tier, tc.TenantID); err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// recoverMiddleware turns a panic in a handler into a 500 instead of
// crashing the server, logging is left to gin's own recovery writer.
func recoverMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	})
}
