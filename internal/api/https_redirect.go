package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPSRedirectMiddleware 把明文请求永久重定向到 HTTPS
// /health 和 /metrics 不重定向
func HTTPSRedirectMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsHTTPS(c) || c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		host := c.Request.Host
		if host == "" {
			host = "localhost"
		}
		c.Redirect(http.StatusMovedPermanently, "https://"+host+c.Request.RequestURI)
		c.Abort()
	}
}

// IsHTTPS 检查请求是否通过 HTTPS 到达,包括经反向代理转发的请求
func IsHTTPS(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		return true
	}
	if c.GetHeader("X-Forwarded-SSL") == "on" {
		return true
	}
	return c.Request.TLS != nil || c.Request.URL.Scheme == "https"
}
