// Package logging hands out named loggers sharing one zap core:
// console output on stdout, plus a rotating JSON file when a log
// directory is configured.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu    sync.Mutex
	root  = zap.NewNop()
	named sync.Map // name -> *zap.SugaredLogger
)

// Setup builds the shared core. Call once at startup, before Get.
// With an empty dir, logs go to stdout only.
func Setup(dir string, debug bool) error {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "pixsafe.log"),
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotated), level))
	}

	mu.Lock()
	root = zap.New(zapcore.NewTee(cores...))
	mu.Unlock()

	named.Range(func(k, _ any) bool {
		named.Delete(k)
		return true
	})
	return nil
}

// Get returns the logger for a component name, creating it on first
// use. Before Setup it returns no-op loggers, which keeps tests quiet.
func Get(name string) *zap.SugaredLogger {
	if v, ok := named.Load(name); ok {
		return v.(*zap.SugaredLogger)
	}
	mu.Lock()
	l := root.Named(name).Sugar()
	mu.Unlock()
	actual, _ := named.LoadOrStore(name, l)
	return actual.(*zap.SugaredLogger)
}

// Sync flushes buffered entries at shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = root.Sync()
}
