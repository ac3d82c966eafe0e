package middleware

import (
	"net/http"
	"os"
	"strings"

	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireAuth
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

const accessTokenCookie = "access_token"

// SetTokenCookie stores the access token as an HttpOnly cookie for browser clients
func SetTokenCookie(c *gin.Context, accessToken string, maxAge int) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, accessToken, maxAge, "/", "", secure, true)
}

// tokenFromRequest reads the cookie first, then the Authorization header
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie(accessTokenCookie); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireAuth validates the JWT and stores the caller's id and role in the context
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Subject not found in token"))
			return
		}
		userRole, _ := claims["role"].(string)

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, userRole)
		c.Next()
	}
}

// RequireRole must run after RequireAuth. It lets through only the listed roles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextUserRole)
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// UserID returns the caller id stored by RequireAuth
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
