package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func newAuthRouter(v *TokenVerifier) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(v))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	v := NewTokenVerifier(testSecret, "authenticated")

	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAud := validClaims("u1")
	wrongAud.Audience = jwt.ClaimStrings{"anon"}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + signToken(t, testSecret, validClaims("u1")), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "another-secret", validClaims("u1")), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), http.StatusUnauthorized},
		{"wrong audience", "Bearer " + signToken(t, testSecret, wrongAud), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, testSecret, validClaims("")), http.StatusUnauthorized},
	}

	r := newAuthRouter(v)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"u1"}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, "authenticated"))

	req := httptest.NewRequest(http.MethodGet, "/me?token="+signToken(t, testSecret, validClaims("u7")), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u7"}`, w.Body.String())
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	v := NewTokenVerifier(testSecret, "")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims("u1")).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}
