package middleware

import (
	"errors"
	"fmt"
	"strings"

	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// identityKey gin.Context 中保存使用者識別碼的鍵
const identityKey = "identity"

// Claims 小程序登入簽發的 token 內容
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity 優先使用 user_id，其次 sub
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// ParseToken 驗證 HS256 token 並取出 claims
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Identity() == "" {
		return nil, errors.New("token has no identity")
	}
	return claims, nil
}

// Authenticate 解析請求身分，沒有憑證時視為匿名
// 啟用驗證時讀取 Bearer token，關閉時讀取開發用標頭
func Authenticate(cfg config.AuthConfig) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	devHeader := cfg.DevHeader
	if devHeader == "" {
		devHeader = "X-User-ID"
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			if id := strings.TrimSpace(c.GetHeader(devHeader)); id != "" {
				c.Set(identityKey, id)
			}
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			common.RespondError(c, common.ErrUnauthorized.WithMessage("Authorization 標頭格式錯誤"))
			return
		}

		claims, err := ParseToken(strings.TrimSpace(tokenString), secret)
		if err != nil {
			common.LogWarn("token 驗證失敗",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			common.RespondError(c, common.ErrUnauthorized.WithMessage("無效或過期的 token"))
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// RequireIdentity 沒有身分時回傳 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == "" {
			common.RespondError(c, common.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// IdentityFrom 取得目前請求的使用者識別碼，匿名時為空字串
func IdentityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}
