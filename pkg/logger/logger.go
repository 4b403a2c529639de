package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logger writing to stdout, or to a rotating file when file is set.
// The returned closer flushes and closes the file.
func New(level, file string) (*logrus.Logger, io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})

	if file == "" {
		log.SetOutput(os.Stdout)
		return log, nopCloser{}, nil
	}

	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		LocalTime:  true,
	}
	log.SetOutput(rotating)
	return log, rotating, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
