package middlewares

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	t_token "textflow/pkg/token"
)

const (
	//QueryToken token in query name (websocket 連線帶不了 header)
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member from token, set c.locals name
	TokenMemberID = "MemberID"
)

// JWTMiddleware validates JWT from Authorization header, query, or cookie
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
			tokenStr = auth[len("Bearer "):]
		}
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}
		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "AUTH_REQUIRED",
			})
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil || claims.MemberID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "AUTH_REQUIRED",
			})
		}

		c.Locals(TokenMemberID, claims.MemberID)
		return c.Next()
	}
}

// ClientIP best-effort 來源位址：X-Forwarded-For 第一段，解析不了就回空字串
// 空字串表示這個請求不做 IP 限流。
func ClientIP(c *fiber.Ctx) string {
	fwd := c.Get(fiber.HeaderXForwardedFor)
	if fwd == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(fwd, ",")[0])
	if net.ParseIP(first) == nil {
		return ""
	}
	return first
}
