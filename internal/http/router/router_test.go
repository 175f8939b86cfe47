package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	healthctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/health"
	usersctrl "github.com/dropDatabas3/userpanel/internal/http/controllers/users"
	healthsvc "github.com/dropDatabas3/userpanel/internal/http/services/health"
	svc "github.com/dropDatabas3/userpanel/internal/http/services/users"
	"github.com/dropDatabas3/userpanel/internal/iamclient"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Cleanup(logger.Replace(zap.NewNop()))
	factory := iamclient.NewFactory(iamclient.NewVerifier(iamclient.VerifierConfig{}), "sid", 0)
	users := usersctrl.NewControllers(usersctrl.Deps{
		Service: svc.NewUserService("http://iam.invalid"),
		Clients: usersctrl.FactoryProvider(factory),
	})
	health := healthctrl.NewHealthController(healthsvc.NewHealthService(healthsvc.Deps{
		Version:    "test",
		IAMBaseURL: "http://iam.invalid",
	}))
	return New(Deps{
		Users:          users,
		Health:         health,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
	})
}

func TestRouter_Health(t *testing.T) {
	h := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_MetricsDefaultPath(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRouter_NotFoundUsesErrorCatalogue(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["code"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/systems/users/u1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_UserRoutesRequireSession(t *testing.T) {
	h := newTestHandler(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/systems/users"},
		{http.MethodGet, "/systems/users/u1"},
		{http.MethodGet, "/api/v1.0/iam/tenant/users"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"), tc.path)
	}
}
