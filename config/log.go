package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.dedis.ch/rgbd"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Writer returns the output of the logs, which is the console unless a file
// is set. The closer releases the file.
func (l Log) Writer() (io.Writer, io.Closer) {
	if l.File == "" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, nopCloser{}
	}

	out := &lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}

	return out, out
}

// Logger returns the logger of the configuration.
func (l Log) Logger() (zerolog.Logger, io.Closer) {
	out, closer := l.Writer()

	logger := zerolog.New(out).With().Timestamp().Logger().
		With().Caller().Logger().
		Level(rgbd.ParseLevel(l.Level))

	return logger, closer
}

// Apply replaces the global logger by the logger of the configuration. The
// closer must be called when the node stops.
func (l Log) Apply() io.Closer {
	logger, closer := l.Logger()

	rgbd.Logger = logger

	return closer
}
