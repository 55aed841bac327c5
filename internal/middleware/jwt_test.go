package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/config"
)

const testSecret = "middleware-test-secret"

func signTestToken(t *testing.T, claims models.JWTClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newProtectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(config.JWTConfig{Secret: testSecret})

	r := gin.New()
	group := r.Group("/", JWT(tokens))
	group.Use(extra...)
	group.GET("/protected", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	group.GET("/students/:studentId", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTMissingHeader(t *testing.T) {
	r := newProtectedRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMalformedHeader(t *testing.T) {
	r := newProtectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTValidTokenStoresClaimsAndRawToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(config.JWTConfig{Secret: testSecret})

	var storedToken string
	r := gin.New()
	r.GET("/protected", JWT(tokens), func(c *gin.Context) {
		storedToken = c.MustGet(ContextTokenKey).(string)
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})

	signed := signTestToken(t, models.JWTClaims{UserID: "7", Role: models.RoleStudent})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, signed, storedToken)
	require.Contains(t, rec.Body.String(), `"user_id":"7"`)
}

func TestRBACAllowsListedRole(t *testing.T) {
	r := newProtectedRouter(RequireRoles(models.RoleAdmin))

	signed := signTestToken(t, models.JWTClaims{UserID: "1", Role: models.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACBlocksOtherRoles(t *testing.T) {
	r := newProtectedRouter(RequireRoles(models.RoleAdmin))

	signed := signTestToken(t, models.JWTClaims{UserID: "7", Role: models.RoleStudent})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACSelfMatchesStudentIDParam(t *testing.T) {
	r := newProtectedRouter(RBAC(string(models.RoleAdmin), "SELF"))

	signed := signTestToken(t, models.JWTClaims{UserID: "7", Role: models.RoleStudent})

	req := httptest.NewRequest(http.MethodGet, "/students/7", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/students/8", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
