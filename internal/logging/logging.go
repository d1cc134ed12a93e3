package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OpenLogFile opens the operator log in append mode. An empty path disables the file sink.
func OpenLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func Level(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// Tee duplicates every entry of base into a JSON file sink.
func Tee(base *zap.Logger, file *os.File, debug bool) *zap.Logger {
	if file == nil {
		return base
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), Level(debug))
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
