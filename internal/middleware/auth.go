package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"

	"taskify/backend/internal/services"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

// Authenticate validates the bearer token and stores the caller's
// identity in the request context. Ownership and role decisions happen
// in the authorization gate, not here.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Authorization header must use Bearer token")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(services.JWTSecret()), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Token validation failed")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Token claims are invalid")
			return
		}

		if iss, _ := claims["iss"].(string); iss != services.TokenIssuer {
			abortUnauthorized(c, "Token issuer is invalid")
			return
		}

		userIDStr, _ := claims["user_id"].(string)
		userID, err := uuid.FromString(userIDStr)
		if err != nil {
			abortUnauthorized(c, "Token claims are invalid")
			return
		}

		role, _ := claims["role"].(string)

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)

		c.Next()
	}
}

// ActorFromContext recovers the authenticated caller placed there by
// Authenticate.
func ActorFromContext(c *gin.Context) (services.Actor, bool) {
	userIDValue, exists := c.Get(ContextUserID)
	if !exists {
		return services.Actor{}, false
	}
	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return services.Actor{}, false
	}

	role, _ := c.Get(ContextUserRole)
	roleStr, _ := role.(string)

	return services.Actor{ID: userID, Role: roleStr}, true
}
