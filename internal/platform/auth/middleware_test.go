package auth

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

var testSecret = []byte("unit-test-secret")

func newAuthRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RequireAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject": c.GetString(CtxSubjectKey),
			"role":    c.GetString(CtxRoleKey),
		})
	})
	return r
}

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func Test_RequireAuth_ValidToken(t *testing.T) {
	r := newAuthRouter(testSecret)
	token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "librarian-01",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "librarian-01")
	assert.Contains(t, w.Body.String(), "admin")
}

func Test_RequireAuth_Rejections(t *testing.T) {
	r := newAuthRouter(testSecret)

	expired := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "librarian-01",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	wrongKey := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "librarian-01",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, []byte("some-other-secret"))
	noSub := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	wrongAlg := signToken(t, jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "librarian-01",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"not_bearer", "Basic abc123"},
		{"empty_token", "Bearer "},
		{"garbage_token", "Bearer not.a.jwt"},
		{"expired_token", "Bearer " + expired},
		{"wrong_key", "Bearer " + wrongKey},
		{"missing_sub", "Bearer " + noSub},
		{"wrong_algorithm", "Bearer " + wrongAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
