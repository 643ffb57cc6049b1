package loyalty

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service, *middleware.JWTAuthenticator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	auth := middleware.NewJWTAuthenticator(cfg).(*middleware.JWTAuthenticator)

	svc := newTestService(t)
	seedTiers(t, svc, defaultTiers...)

	r := gin.New()
	r.Use(middleware.Error())
	registerRoutes(r, auth, svc)
	return r, svc, auth
}

func TestAdjustmentRequiresAdminToken(t *testing.T) {
	r, svc, auth := newTestRouter(t)
	const worker int64 = 88

	workerToken, err := auth.Issue(worker, time.Minute)
	require.NoError(t, err)
	adminToken, err := auth.IssueRole(1, middleware.RoleAdmin, time.Minute)
	require.NoError(t, err)

	adjust := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/loyalty/workers/88/adjustments", strings.NewReader(`{"points":500,"notes":"bonus"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusForbidden, adjust(workerToken))
	sum, err := svc.Balance(context.Background(), worker)
	require.NoError(t, err)
	require.Equal(t, int64(0), sum.Balance)

	require.Equal(t, http.StatusCreated, adjust(adminToken))
	sum, err = svc.Balance(context.Background(), worker)
	require.NoError(t, err)
	require.Equal(t, int64(500), sum.Balance)
}

func TestWorkerRoutesStillOpenToWorkers(t *testing.T) {
	r, _, auth := newTestRouter(t)

	token, err := auth.Issue(88, time.Minute)
	require.NoError(t, err)

	for _, path := range []string{"/v1/loyalty/me", "/v1/loyalty/tiers"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodPut, "/v1/loyalty/tiers", strings.NewReader(`{"code":"VIP","name":"VIP","min_points":0}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
