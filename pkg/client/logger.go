package client

import (
	"github.com/pion/logging"
	"github.com/sirupsen/logrus"
)

type pionLogger struct {
	*logrus.Entry
}

func (l pionLogger) Trace(msg string) { l.Entry.Trace(msg) }
func (l pionLogger) Debug(msg string) { l.Entry.Debug(msg) }
func (l pionLogger) Info(msg string)  { l.Entry.Info(msg) }
func (l pionLogger) Warn(msg string)  { l.Entry.Warn(msg) }
func (l pionLogger) Error(msg string) { l.Entry.Error(msg) }

type pionLoggerFactory struct {
	logger *logrus.Logger
}

// NewLoggerFactory routes the log output of pion into logrus.
func NewLoggerFactory(logger *logrus.Logger) logging.LoggerFactory {
	return &pionLoggerFactory{logger: logger}
}

func (f *pionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return pionLogger{
		Entry: f.logger.WithField("scope", scope),
	}
}
