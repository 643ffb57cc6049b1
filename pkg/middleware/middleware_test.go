package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newAuth(t *testing.T) *JWTAuthenticator {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "asenso"
	return NewJWTAuthenticator(cfg).(*JWTAuthenticator)
}

func newRouter(a Authenticator, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Error())
	r.GET("/me", Auth(a), h)
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthAcceptsIssuedToken(t *testing.T) {
	a := newAuth(t)
	token, err := a.Issue(42, time.Minute)
	require.NoError(t, err)

	r := newRouter(a, func(c *gin.Context) {
		id, err := WorkerID(c)
		require.NoError(t, err)
		role, _ := c.Get(roleKey)
		require.Equal(t, RoleWorker, role)
		c.JSON(http.StatusOK, gin.H{"worker_id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"worker_id":42}`, w.Body.String())
}

func TestAuthRejects(t *testing.T) {
	a := newAuth(t)
	expired, err := a.Issue(42, -time.Minute)
	require.NoError(t, err)

	other := newAuth(t)
	other.secret = []byte("someone-else")
	forged, err := other.Issue(42, time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"missing": "",
		"scheme":  "Basic abc",
		"expired": "Bearer " + expired,
		"forged":  "Bearer " + forged,
	}

	r := newRouter(a, func(c *gin.Context) { c.Status(http.StatusOK) })
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, string(errutil.StatusUnauthorized), errorCode(t, w))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	a := newAuth(t)
	worker, err := a.Issue(42, time.Minute)
	require.NoError(t, err)
	admin, err := a.IssueRole(7, RoleAdmin, time.Minute)
	require.NoError(t, err)
	bogus, err := a.IssueRole(42, Role("owner"), time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Error())
	r.PUT("/tiers", Auth(a), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := map[string]struct {
		token string
		code  int
	}{
		"worker": {worker, http.StatusForbidden},
		"admin":  {admin, http.StatusNoContent},
		"bogus":  {bogus, http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/tiers", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusForbidden {
				require.Equal(t, string(errutil.StatusForbidden), errorCode(t, w))
			}
		})
	}
}

func TestRequireAdminWithoutAuth(t *testing.T) {
	r := gin.New()
	r.Use(Error())
	r.POST("/holidays", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holidays", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorRendersStatus(t *testing.T) {
	r := gin.New()
	r.Use(Error())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(errutil.Conflict("invalid transition", nil))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection reset"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, string(errutil.StatusConflict), errorCode(t, w))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection reset")
}
