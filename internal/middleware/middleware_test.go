package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"agrimarket-be/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/protected", func(c *gin.Context) {
		id, _ := auth.GetUserIDFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	t.Run("missing token", func(t *testing.T) {
		r := newRouter(RequireAuth())
		req := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("invalid token", func(t *testing.T) {
		r := newRouter(RequireAuth())
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token loads identity", func(t *testing.T) {
		token, err := auth.GenerateJWT(7, "vendor@test.com", "vendor")
		require.NoError(t, err)

		r := newRouter(RequireAuth())
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":7`)
	})

	t.Run("cookie token accepted", func(t *testing.T) {
		token, err := auth.GenerateJWT(8, "supplier@test.com", "supplier")
		require.NoError(t, err)

		r := newRouter(RequireAuth())
		req := httptest.NewRequest("GET", "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	t.Run("role allowed", func(t *testing.T) {
		token, err := auth.GenerateJWT(7, "vendor@test.com", "vendor")
		require.NoError(t, err)

		r := newRouter(RequireAuth(), RequireRole("vendor", "supplier"))
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role denied", func(t *testing.T) {
		token, err := auth.GenerateJWT(41, "consumer@test.com", "consumer")
		require.NoError(t, err)

		r := newRouter(RequireAuth(), RequireRole("vendor"))
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCORS(t *testing.T) {
	t.Run("preflight answered without auth", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(CORS(), RequireAuth())
		r.POST("/orders/checkout", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("OPTIONS", "/orders/checkout", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("normal request carries CORS headers", func(t *testing.T) {
		r := newRouter(CORS())
		req := httptest.NewRequest("GET", "/protected", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("strict tier blocks after burst", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RateLimit())
		r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		var lastCode int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest("POST", "/auth/login", nil)
			req.Header.Set("X-Device-ID", "limiter-test-device")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			lastCode = w.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("identities have separate buckets", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RateLimit())
		r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.Header.Set("X-Device-ID", "another-device")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
