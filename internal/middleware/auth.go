package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/airport/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey  = "user_id"
	isStaffKey = "is_staff"
)

// Claims are issued by the identity provider. Subject carries the numeric user id.
type Claims struct {
	IsStaff bool `json:"is_staff"`
	jwt.RegisteredClaims
}

// JWTAuth validates a Bearer token signed with secret and stores the
// user id and staff flag on the gin and request contexts.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "unauthorized"})
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject", "code": "unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(isStaffKey, claims.IsStaff)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// RequireStaff must run after JWTAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff permission required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func IsStaff(c *gin.Context) bool {
	return c.GetBool(isStaffKey)
}

// SetUser stores an authenticated identity on the gin context.
func SetUser(c *gin.Context, userID int64, isStaff bool) {
	c.Set(userIDKey, userID)
	c.Set(isStaffKey, isStaff)
}
