// Package log writes request-scoped structured lines keyed by an action name.
package log

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// Init builds the process logger. Production emits JSON, anything else the console
// encoder. A non-empty file is added as a second sink.
func Init(env, file string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	Use(l)
	return l, nil
}

// Use swaps the logger and returns a func restoring the previous one.
func Use(l *zap.Logger) (restore func()) {
	prev := current.Swap(l)
	zap.ReplaceGlobals(l)
	return func() {
		current.Store(prev)
		zap.ReplaceGlobals(prev)
	}
}

// L returns the process logger for code that has no request.
func L() *zap.Logger { return current.Load() }

func write(level zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := current.Load()
	ce := l.Check(level, action)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+8)
	zf = append(zf, zap.String("kind", kind))
	if c != nil {
		zf = append(zf,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			zf = append(zf, zap.String("req_id", rid))
		}
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	ce.Write(zf...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "info", c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, "security", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, "error", c, action, err, fields)
}
