package diskbloom

import (
	"log"

	"github.com/sirupsen/logrus"
)

type Logger func(v ...interface{})

func StdLogger(logger *log.Logger) Logger {
	if logger == nil {
		logger = log.Default()
	}
	return func(v ...interface{}) {
		logger.Println(v...)
	}
}

// LogrusLogger writes filter messages at info level
func LogrusLogger(logger logrus.FieldLogger) Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(v ...interface{}) {
		logger.Infoln(v...)
	}
}

var NoOpLogger Logger = func(...interface{}) {}
