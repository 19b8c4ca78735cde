package log

import (
	"context"
	"io"
	stdlog "log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"gopkg.in/natefinch/lumberjack.v2"
)

const name = "cot"

func boundVerbosity(logger logr.Logger, v int) {
	if v > 2 || v < 0 {
		v = 0
		logger.Info("Invalid verbosity, setting logger to display info level messages only.")
	}
	stdr.SetVerbosity(v)
}

// GetLogger returns a stdr.Logger writing to stderr that implements the
// logr.Logger interface and sets the verbosity of the returned logger.
// set v to 0 for info level messages,
// 1 for debug messages and 2 for trace level message.
// any other verbosity level will default to 0.
func GetLogger(v int) logr.Logger {
	logger := stdr.New(nil).WithName(name)
	boundVerbosity(logger, v)
	return logger
}

// GetLoggerWithOutput is GetLogger writing to w
func GetLoggerWithOutput(v int, w io.Writer) logr.Logger {
	logger := stdr.New(stdlog.New(w, "", stdlog.LstdFlags)).WithName(name)
	boundVerbosity(logger, v)
	return logger
}

// RotatingFile returns a size rotated log file at path. An empty path
// means stderr.
func RotatingFile(path string) io.WriteCloser {
	if path == "" {
		return nopCloser{os.Stderr}
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // megabytes
		MaxBackups: 4,
		Compress:   true,
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// ContextWithLogger returns a context that has a logr.Logger contained inside,
// which can then be used by the Send/Receive functions of the cot package.
func ContextWithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// GetLoggerFromContextWithName returns a logr.Logger if it was contained in the context
// otherwise, it returns a fresh logger with verbosity set to 0.
func GetLoggerFromContextWithName(ctx context.Context, name string) logr.Logger {
	logger, err := logr.FromContext(ctx)
	if err != nil {
		logger = GetLogger(0)
	}

	if name != "" {
		return logger.WithName(name)
	}
	return logger
}
