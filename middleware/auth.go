package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/expensedecoder/api/utils"
)

const userIDKey = "user_id"

var ErrMissingSubject = errors.New("token has no subject")

// TokenVerifier validates HS256 access tokens issued by the managed auth
// service. The subject claim is the user id.
type TokenVerifier struct {
	secret   []byte
	audience string
}

func NewTokenVerifier(secret, audience string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), audience: audience}
}

// Verify parses the token and returns its subject.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// user id in the context.
func AuthMiddleware(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, err := v.Verify(tokenString)
		if err != nil {
			utils.SafeWarn("[Auth] Rejected token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		SetUserID(c, userID)
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter since browsers cannot set headers on websocket upgrades.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// SetUserID marks the request as authenticated for userID.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// GetUserID returns the authenticated user id, or "" outside AuthMiddleware.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
