package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims structure for the rental API access token
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// DecodeClaims decode the stored access token without verifying the signature.
// 簽名金鑰屬於遠端 API，這裡只取 claims 做過期檢查與 user id 核對
func DecodeClaims(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// NotExpired check token claims not expires
func NotExpired(c *Claims) bool {
	exp, err := c.GetExpirationTime()
	if err != nil || exp == nil {
		// 沒帶過期時間視為仍有效
		return true
	}
	return exp.After(time.Now())
}
