package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//LocalsUserID set c.locals name for the session user id
	LocalsUserID = "UserID"
	//LocalsRole set c.locals name for the session role
	LocalsRole = "Role"
)

// SessionAuth guards the surface routes of a single-user session.
// 閘道綁定單一登入者，請求攜帶的 token 需與 session 內存的 access token 相同
func SessionAuth(accessToken, userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)

		// 查詢參數沒有 token 時改讀 Authorization header
		if tokenStr == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				tokenStr = auth[len("Bearer "):]
			}
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		if tokenStr != accessToken {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(LocalsUserID, userID)
		c.Locals(LocalsRole, role)

		return c.Next()
	}
}
