package tracing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/aws/aws-xray-sdk-go/xraylog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledTracingIsTransparent(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	require.NoError(t, Initialize(Config{ServiceName: "machinery-pricer", Enabled: false}, log))
	assert.False(t, Enabled())

	called := false
	err := Capture(context.Background(), "historical_fetch", func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, called)
	assert.EqualError(t, err, "boom")

	// no segment in context, must not panic
	AddAnnotation(context.Background(), "use_case", "pvp")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	Handler("machinery-pricer", inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

type logLine string

func (l logLine) String() string { return string(l) }

func TestEnabledTracingOpensSegments(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	t.Cleanup(func() { _ = Initialize(Config{Enabled: false}, log) })

	require.NoError(t, Initialize(Config{
		ServiceName:    "machinery-pricer",
		ServiceVersion: "test",
		Enabled:        true,
		DaemonAddr:     "127.0.0.1:2000",
	}, log))
	assert.True(t, Enabled())
	assert.Contains(t, buf.String(), "AWS X-Ray initialized")

	called := false
	require.NoError(t, Capture(context.Background(), "historical_fetch", func(ctx context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called, "capture without a segment runs fn directly")

	var sawSegment, sawSubsegment bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSegment = xray.GetSegment(r.Context()) != nil
		AddAnnotation(r.Context(), "use_case", "pvp")
		_ = Capture(r.Context(), "live_fetch", func(ctx context.Context) error {
			sawSubsegment = xray.GetSegment(ctx) != nil
			return nil
		})
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	Handler("machinery-pricer", inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, sawSegment)
	assert.True(t, sawSubsegment)
}

func TestLoggerAdapterMapsLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.InfoLevel)
	adapter := &xrayLoggerAdapter{logger: log}

	adapter.Log(xraylog.LogLevelDebug, logLine("debug line"))
	adapter.Log(xraylog.LogLevelWarn, logLine("warn line"))
	adapter.Log(xraylog.LogLevelError, logLine("error line"))

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.Contains(t, out, "level=warning msg=\"warn line\"")
	assert.Contains(t, out, "level=error msg=\"error line\"")
}
