package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acentos/bookstore/internal/pkg/jwt"
)

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	auth := JWTAuth(secret)

	newContext := func(header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/v1/favorites", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		return c
	}

	t.Run("missing header", func(t *testing.T) {
		c := newContext("")
		auth(c)
		require.True(t, c.IsAborted())
	})

	t.Run("malformed header", func(t *testing.T) {
		c := newContext("Basic abc")
		auth(c)
		require.True(t, c.IsAborted())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.GenerateToken("u1", "u1@example.com", []byte("other-secret"), time.Hour)
		require.NoError(t, err)
		c := newContext("Bearer " + token)
		auth(c)
		require.True(t, c.IsAborted())
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwt.GenerateToken("u1", "", secret, -time.Minute)
		require.NoError(t, err)
		c := newContext("Bearer " + token)
		auth(c)
		require.True(t, c.IsAborted())
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwt.GenerateToken("u1", "u1@example.com", secret, time.Hour)
		require.NoError(t, err)
		c := newContext("Bearer " + token)
		auth(c)
		require.False(t, c.IsAborted())
		require.Equal(t, "u1", c.GetString(ContextUserIDKey))
		require.Equal(t, "u1@example.com", c.GetString("user_email"))
	})
}
