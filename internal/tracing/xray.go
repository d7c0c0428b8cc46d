// Package tracing provides AWS X-Ray distributed tracing integration.
package tracing

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/aws/aws-xray-sdk-go/xraylog"
	"github.com/sirupsen/logrus"
)

// Config contains X-Ray configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	DaemonAddr     string
}

var enabled atomic.Bool

// Logger adapter for X-Ray SDK.
type xrayLoggerAdapter struct {
	logger *logrus.Logger
}

func (l *xrayLoggerAdapter) Log(level xraylog.LogLevel, msg fmt.Stringer) {
	switch level {
	case xraylog.LogLevelDebug:
		l.logger.Debug(msg.String())
	case xraylog.LogLevelInfo:
		l.logger.Info(msg.String())
	case xraylog.LogLevelWarn:
		l.logger.Warn(msg.String())
	case xraylog.LogLevelError:
		l.logger.Error(msg.String())
	}
}

// Initialize initializes AWS X-Ray with the given configuration.
func Initialize(cfg Config, logger *logrus.Logger) error {
	enabled.Store(false)
	if !cfg.Enabled {
		return nil
	}

	xray.SetLogger(&xrayLoggerAdapter{logger: logger})

	if err := xray.Configure(xray.Config{
		DaemonAddr:     cfg.DaemonAddr,
		ServiceVersion: cfg.ServiceVersion,
	}); err != nil {
		return fmt.Errorf("failed to configure x-ray: %w", err)
	}
	enabled.Store(true)

	logger.WithFields(logrus.Fields{
		"daemon_addr":  cfg.DaemonAddr,
		"service_name": cfg.ServiceName,
	}).Info("AWS X-Ray initialized")

	return nil
}

// Enabled reports whether tracing was initialized.
func Enabled() bool {
	return enabled.Load()
}

// Handler wraps h so every request opens a segment named after the service.
func Handler(serviceName string, h http.Handler) http.Handler {
	if !Enabled() {
		return h
	}
	return xray.Handler(xray.NewFixedSegmentNamer(serviceName), h)
}

// Capture runs fn in a subsegment when ctx carries a segment, and directly otherwise.
func Capture(ctx context.Context, name string, fn func(context.Context) error) error {
	if !Enabled() || xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, fn)
}

// AddAnnotation adds an annotation to the current segment.
func AddAnnotation(ctx context.Context, key string, value interface{}) {
	if !Enabled() {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}
