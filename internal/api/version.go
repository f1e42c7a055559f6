package api

import (
	"github.com/gin-gonic/gin"
)

// APIVersion 当前 API 版本
const APIVersion = "v1"

// Version 构建版本,由 -ldflags 注入
var Version = "dev"

// VersionMiddleware 在响应头中返回 API 和构建版本
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", APIVersion)
		c.Header("X-App-Version", Version)
		c.Set("api_version", APIVersion)
		c.Next()
	}
}
