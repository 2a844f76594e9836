package log

import (
	"fmt"
	"io"
	"os"

	"claim-portal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	Log   *zap.Logger        = zap.NewNop()
	Sugar *zap.SugaredLogger = Log.Sugar()
	Write io.Writer          = io.Discard
)

// Init builds the global logger. A non-empty filename adds a rotating file
// under the configured log dir; console also writes to stderr.
func Init(filename string, console bool) {
	ws, level := getConfigLogArgs(filename, console)
	encoderConf := zap.NewProductionEncoderConfig()
	encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConf.EncodeCaller = CallerEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConf)
	log := zap.New(
		zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level)),
		zap.AddCaller(),
	)
	Log = log
	Sugar = log.Sugar()
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "ERROR", "error":
		return zap.ErrorLevel
	case "WARN", "warn":
		return zap.WarnLevel
	case "DEBUG", "debug":
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

func getConfigLogArgs(filename string, console bool) (zapcore.WriteSyncer, zapcore.Level) {
	log := config.GetConfig().Log

	var (
		syncers []zapcore.WriteSyncer
		writers []io.Writer
	)

	if filename != "" {
		logger := &lumberjack.Logger{
			Filename:   fmt.Sprintf("%s/%s", log.Dir, filename), // if logs dir not exist, it will be auto create
			MaxSize:    log.MaxSize,
			MaxBackups: log.MaxBackups,
			MaxAge:     log.MaxAge,
			Compress:   log.Compress,
			LocalTime:  true,
		}
		writers = append(writers, logger)
		syncers = append(syncers, zapcore.AddSync(logger))
	}

	if console {
		writers = append(writers, os.Stderr)
		syncers = append(syncers, zapcore.Lock(os.Stderr))
	}

	if len(writers) > 0 {
		Write = io.MultiWriter(writers...)
	}

	return zapcore.NewMultiWriteSyncer(syncers...), parseLevel(log.Level)
}
