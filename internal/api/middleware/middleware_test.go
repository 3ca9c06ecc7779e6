package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// serveOnce routes a single request through the given middleware chain
func serveOnce(method, path string, handler gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(mw...)
	router.Handle(method, path, handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLoggingMiddleware(t *testing.T) {
	cases := map[string]struct {
		method string
		path   string
		status int
		quiet  []string
		logged bool
	}{
		"snapshot read":      {http.MethodGet, "/api/v1/simulator/snapshot", http.StatusOK, nil, true},
		"message sent":       {http.MethodPost, "/api/v1/simulator/messages", http.StatusCreated, nil, true},
		"conflict":           {http.MethodPost, "/api/v1/simulator/failures", http.StatusConflict, nil, true},
		"metrics is quiet":   {http.MethodGet, "/metrics", http.StatusOK, []string{"/health", "/metrics"}, false},
		"health is quiet":    {http.MethodGet, "/health", http.StatusOK, []string{"/health", "/metrics"}, false},
		"unrelated prefixes": {http.MethodPut, "/api/v1/simulator/queue", http.StatusOK, []string{"/metrics"}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := serveOnce(tc.method, tc.path,
				func(c *gin.Context) { c.Status(tc.status) },
				LoggingMiddleware(bufferLogger(&logs), tc.quiet...),
			)

			assert.Equal(t, tc.status, rec.Code)
			if !tc.logged {
				assert.Empty(t, logs.String())
				return
			}
			assert.Contains(t, logs.String(), "HTTP request")
			assert.Contains(t, logs.String(), "path="+tc.path)
			assert.Contains(t, logs.String(), "method="+tc.method)
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	cases := map[string]struct {
		handler     gin.HandlerFunc
		status      int
		contains    string
		notContains string
		logged      string
	}{
		"no errors": {
			handler:  func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) },
			status:   http.StatusOK,
			contains: "success",
		},
		"unwritten error becomes 500": {
			handler: func(c *gin.Context) {
				_ = c.Error(gin.Error{Err: errors.New("engine exploded"), Type: gin.ErrorTypePrivate})
			},
			status:      http.StatusInternalServerError,
			contains:    "Internal Server Error",
			notContains: "engine exploded",
			logged:      "engine exploded",
		},
		"written response is kept": {
			handler: func(c *gin.Context) {
				c.JSON(http.StatusConflict, gin.H{"error": "Duplicate message"})
				_ = c.Error(errors.New("duplicate"))
			},
			status:   http.StatusConflict,
			contains: "Duplicate message",
			logged:   "duplicate",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := serveOnce(http.MethodGet, "/test", tc.handler, ErrorHandlerMiddleware(bufferLogger(&logs)))

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contains)
			if tc.notContains != "" {
				assert.NotContains(t, rec.Body.String(), tc.notContains)
			}
			if tc.logged != "" {
				assert.Contains(t, logs.String(), tc.logged)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestMiddlewareChain_NilLoggers(t *testing.T) {
	rec := serveOnce(http.MethodGet, "/test",
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) },
		LoggingMiddleware(nil), ErrorHandlerMiddleware(nil),
	)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "success")
}
