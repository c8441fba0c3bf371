package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/riskmesh/riskmesh/internal/api"
	"github.com/riskmesh/riskmesh/internal/graph"
	"github.com/riskmesh/riskmesh/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAPIKey = "test-key"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// newTestRouter builds the full router with defaults a test can override
// through mutate.
func newTestRouter(t *testing.T, mutate func(deps *api.RouterDeps)) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps := &api.RouterDeps{
		Log:    testLogger(),
		Engine: &mockEngine{},
		Graph:  graph.NewStore(),
		Cache:  &mockCache{},
		Keyring: middleware.NewKeyring(map[string]middleware.Principal{
			testAPIKey: {Name: "test", RateLimit: 1000},
		}, 1000, true),
		CORSOrigins:      []string{"http://localhost:3000"},
		Version:          "test",
		EventDeadline:    time.Second,
		RateBurstSeconds: 1,
	}

	if mutate != nil {
		mutate(deps)
	}

	return api.NewRouter(ctx, deps)
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serve(h, method, path, body, testAPIKey)
}

func doRequestWithoutKey(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serve(h, method, path, body, "")
}

func serve(h http.Handler, method, path, body, apiKey string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}
