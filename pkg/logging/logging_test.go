package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.With("suite", "c").Info("case passed", "case", "level 1", "nodes", 9)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[INFO]  "), line)
	assert.Contains(t, line, "case passed | suite=c case=\"level 1\" nodes=9\n")
}

func TestCompactHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.Debug("hidden")
	l.Log(context.Background(), LevelTrace, "hidden too")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]  ")
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelTrace)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo)

	ctx := WithRunID(context.Background(), "0123456789abcdef")
	ctx = WithRequestID(ctx, "fedcba9876543210")
	TraceContext(ctx, "invoking", "args", "-j 2")

	line := buf.String()
	assert.Contains(t, line, "[TRACE] ")
	assert.Contains(t, line, "run=01234567 req=fedcba98 args=\"-j 2\"")
	assert.Equal(t, "0123456789abcdef", GetRunID(ctx))
}

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(0))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(1))
	assert.Equal(t, LevelTrace, LevelFromVerbosity(3))
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"trace": LevelTrace,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo)

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		http.Error(w, "no report yet", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("X-Request-ID", "abcdef0123456789")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abcdef0123456789", seen)
	assert.Equal(t, "abcdef0123456789", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), "[WARN]  ")
	assert.Contains(t, buf.String(), "request served | req=abcdef01 method=GET path=/api/report status=404")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}
