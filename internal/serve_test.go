package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/sse"
)

func TestHandler_HealthAndAuth(t *testing.T) {
	app, _ := testApp(t, corpus(), func(c *Config) {
		c.Serve.Auth = AuthConfig{Mode: AuthModeToken, Token: "tok"}
	})
	h := app.Handler(app, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"passed":true`)
}

func TestCachedAudit_ServesLatest(t *testing.T) {
	app, _ := testApp(t, corpus(), nil)
	c := &cachedAudit{App: app}

	first, err := c.Audit(context.Background())
	require.NoError(t, err)
	second, err := c.Audit(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second, "no cached result yet, each call audits")

	c.set(first)
	got, err := c.Audit(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestSummary(t *testing.T) {
	app, _ := testApp(t, corpus(), nil)
	res, err := app.Audit(context.Background())
	require.NoError(t, err)

	s := summary(res)
	assert.Equal(t, sse.Summary{
		Passed:       true,
		CorpusDigest: res.Report.CorpusDigest,
		Timestamp:    fixedNow.Format(time.RFC3339),
	}, s)
}
