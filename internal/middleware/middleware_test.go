// internal/middleware/middleware_test.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/utils"
)

const (
	adminAddress = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	userAddress  = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize("en"); err != nil {
		panic(err)
	}
	utils.SetJWTSecret("middleware-secret")
	os.Exit(m.Run())
}

type adminSet map[string]bool

func (a adminSet) IsAdmin(address string) bool {
	return a[strings.ToLower(address)]
}

type revocations struct {
	revoked map[string]bool
	err     error
}

func (r *revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.revoked[jti], r.err
}

func identityRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		address, _ := utils.GetWalletAddressFromContext(c)
		c.JSON(http.StatusOK, gin.H{"address": address, "is_admin": utils.IsAdminFromContext(c)})
	})
	r.GET("/", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	admins := adminSet{strings.ToLower(adminAddress): true}
	sessions := &revocations{revoked: map[string]bool{}}
	r := identityRouter(AuthRequired(sessions, admins))

	token, err := utils.GenerateJWT(adminAddress, 1)
	require.NoError(t, err)

	w := get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), adminAddress)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)

	userToken, err := utils.GenerateJWT(userAddress, 1)
	require.NoError(t, err)
	w = get(r, userToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_admin":false`)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "not-a-jwt").Code)

	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	sessions.revoked[claims.ID] = true
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
}

func TestAuthRequiredStoreFailure(t *testing.T) {
	r := identityRouter(AuthRequired(&revocations{err: errors.New("redis down")}, adminSet{}))

	token, err := utils.GenerateJWT(userAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, get(r, token).Code)
}

func TestAdminStatusFollowsRegistry(t *testing.T) {
	admins := adminSet{strings.ToLower(userAddress): true}
	r := identityRouter(AuthRequired(nil, admins), AdminRequired())

	token, err := utils.GenerateJWT(userAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, token).Code)

	delete(admins, strings.ToLower(userAddress))
	assert.Equal(t, http.StatusForbidden, get(r, token).Code)
}

func TestOptionalAuth(t *testing.T) {
	sessions := &revocations{revoked: map[string]bool{}}
	r := identityRouter(OptionalAuth(sessions, adminSet{}))

	w := get(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"address":""`)

	token, err := utils.GenerateJWT(userAddress, 1)
	require.NoError(t, err)
	w = get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userAddress)

	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	sessions.revoked[claims.ID] = true
	w = get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"address":""`)
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"zh-TW,zh;q=0.9,en;q=0.8", "zh_TW"},
		{"zh-HK", "zh_TW"},
		{"en-US,en;q=0.9", "en"},
		{"fr-FR, de;q=0.5", "en"},
		{"fr-FR, zh-Hant;q=0.5", "zh_TW"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLanguage(tt.header, "en"), tt.header)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter("test", 0, 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}

func TestRateLimiterKeysByWallet(t *testing.T) {
	rl := NewRateLimiter("test", 0, 1)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if address := c.GetHeader("X-Test-Wallet"); address != "" {
			c.Set("wallet_address", address)
		}
		c.Next()
	}, rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(address string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-Wallet", address)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(adminAddress))
	assert.Equal(t, http.StatusTooManyRequests, call(adminAddress))
	assert.Equal(t, http.StatusOK, call(userAddress))
	assert.Equal(t, http.StatusOK, call(""))
	assert.Equal(t, 3, rl.tracked())
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter("test", 0, 1)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	require.True(t, rl.allow("ip:10.0.0.1"))
	require.False(t, rl.allow("ip:10.0.0.1"))

	now = now.Add(30 * time.Second)
	require.True(t, rl.allow("ip:10.0.0.2"))
	assert.Equal(t, 2, rl.tracked())

	// Past idleAfter for the first client only; the sweep on this call
	// drops it and it comes back with a fresh burst.
	now = now.Add(idleAfter)
	require.True(t, rl.allow("ip:10.0.0.3"))
	assert.Equal(t, 2, rl.tracked())
	assert.True(t, rl.allow("ip:10.0.0.1"))
}
