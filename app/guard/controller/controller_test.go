package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	ctypes "github.com/arcadenet/voteguard/app/guard/controller/types"
	apptypes "github.com/arcadenet/voteguard/app/guard/types"
	"github.com/arcadenet/voteguard/pkg/engine"
	"github.com/arcadenet/voteguard/pkg/notify"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	t.Setenv("ADMIN_TOKEN", "test-token")

	logger := zaptest.NewLogger(t)
	registry := notify.NewRegistry(logger, 2)
	t.Cleanup(registry.Close)

	app := &apptypes.App{
		Engine:   engine.New(engine.DefaultConfig(), logger, registry),
		Registry: registry,
		Logger:   logger,
	}
	router, err := NewController(app).NewRouter()
	require.NoError(t, err)
	return router
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func voteBody(actor, target, source string, tsMs int64) map[string]any {
	return map[string]any{
		"actorId":       actor,
		"actorAddress":  actor,
		"targetId":      target,
		"polarity":      "up",
		"burnAmount":    7,
		"sourceAddress": source,
		"timestampMs":   tsMs,
	}
}

func TestVoteAccepted(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/votes", voteBody("A", "T", "S1", 1_000_000))
	require.Equal(t, http.StatusOK, rec.Code)

	var out ctypes.VoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "accept", out.Decision)
	require.Equal(t, 0, out.RiskScore)
	require.Empty(t, out.Findings)
}

func TestVoteMissingParams(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/votes", map[string]any{
		"actorId":  "A",
		"polarity": "up",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out ctypes.MissingParamsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "MissingParams", out.Error)
	require.Contains(t, out.Missing, "actorAddress")
	require.Contains(t, out.Missing, "targetId")
	require.Contains(t, out.Missing, "burnAmount")
	require.Contains(t, out.Missing, "sourceAddress")
}

func TestVoteInvalidPolarity(t *testing.T) {
	router := newTestRouter(t)

	body := voteBody("A", "T", "S1", 1_000_000)
	body["polarity"] = "sideways"
	rec := postJSON(t, router, "/votes", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "InvalidPolarity")
}

func TestVoteMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/votes", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoteBlockedReturns429(t *testing.T) {
	router := newTestRouter(t)

	body := voteBody("A", "T", "S1", 1_000_000)
	body["burnValidated"] = false
	rec := postJSON(t, router, "/votes", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "300", rec.Header().Get("Retry-After"))

	var out ctypes.BlockedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Blocked", out.Error)
	require.Equal(t, []string{"BurnNotValidated"}, out.Reasons)
	require.Equal(t, 300, out.RetryAfterSeconds)
	require.GreaterOrEqual(t, out.RiskScore, 70)
}

func TestBurstBlockedThrough(t *testing.T) {
	router := newTestRouter(t)
	base := int64(1_000_000)

	for i := 0; i < 9; i++ {
		rec := postJSON(t, router, "/votes",
			voteBody("A", fmt.Sprintf("T%d", i), fmt.Sprintf("S%d", i), base+int64(i)*2000))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(t, router, "/votes", voteBody("A", "T9", "S9", base+20_000))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var out ctypes.BlockedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, []string{"RateMinute", "RapidBurst"}, out.Reasons)
	require.Equal(t, 90, out.RiskScore)
}

func TestMetricsRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "processed")
}

func TestConfigEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg engine.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, 70, cfg.Aggregator.BlockThreshold)
}

func TestLoginIssuesUsableSession(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))

	router := newTestRouter(t)

	rec := postJSON(t, router, "/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/admin/login", map[string]string{
		"username": "admin",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, "vg_session", cookies[0].Name)

	// The cookie alone authorizes the ops surface.
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// No sink configured: readiness is just the process being up.
	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
