package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminToken 管理令牌请求头
const HeaderAdminToken = "X-Admin-Token"

// AdminAuth 管理接口访问控制
//
// 支持两种限制，可同时启用：
//   - IP 白名单：单个地址或 CIDR
//   - 管理令牌：X-Admin-Token 或 Authorization: Bearer，与 bcrypt 哈希比对
//
// 两者都未配置时不做任何限制。
type AdminAuth struct {
	prefixes  []netip.Prefix
	tokenHash []byte
	logger    *zap.Logger
}

// NewAdminAuth 创建管理接口中间件，无法解析的白名单条目会被忽略并记录
func NewAdminAuth(allowedIPs []string, tokenHash string, logger *zap.Logger) *AdminAuth {
	a := &AdminAuth{logger: logger}
	for _, raw := range allowedIPs {
		p, err := parsePrefix(raw)
		if err != nil {
			logger.Warn("ignoring invalid admin IP entry", zap.String("entry", raw), zap.Error(err))
			continue
		}
		a.prefixes = append(a.prefixes, p)
	}
	if tokenHash != "" {
		a.tokenHash = []byte(tokenHash)
	}
	return a
}

// Enabled 是否启用了任一限制
func (a *AdminAuth) Enabled() bool {
	return len(a.prefixes) > 0 || len(a.tokenHash) > 0
}

// Require 返回管理接口中间件
func (a *AdminAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		if len(a.prefixes) > 0 && !a.ipAllowed(c.ClientIP()) {
			a.logger.Warn("admin access denied by IP", zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied",
			})
			return
		}

		if len(a.tokenHash) > 0 {
			token := extractAdminToken(c)
			if token == "" || bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)) != nil {
				a.logger.Warn("admin access denied by token", zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "Unauthorized",
				})
				return
			}
		}

		c.Next()
	}
}

func (a *AdminAuth) ipAllowed(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractAdminToken 优先读取 X-Admin-Token，其次 Authorization: Bearer
func extractAdminToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(HeaderAdminToken)); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func parsePrefix(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
