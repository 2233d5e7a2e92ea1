package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once sync.Once
	base *logrus.Logger
)

// Init configures the global logger exactly once. When filePath is set the
// output is also written to a rotating file.
func Init(level, format, filePath string) *logrus.Logger {
	once.Do(func() {
		l := logrus.New()

		var out io.Writer = os.Stdout
		if filePath != "" {
			rot := &lumberjack.Logger{
				Filename:   filePath,
				MaxSize:    50, // MB
				MaxBackups: 3,
				MaxAge:     7, // days
			}
			out = io.MultiWriter(os.Stdout, rot)
		}
		l.SetOutput(out)

		if strings.EqualFold(format, "text") {
			l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			l.SetFormatter(&logrus.JSONFormatter{})
		}

		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		l.SetLevel(lvl)

		base = l
	})
	return base
}

// Base returns the global logger, initializing a stdout JSON logger if Init
// was never called.
func Base() *logrus.Logger {
	return Init("info", "json", "")
}

func New(component string) *logrus.Entry {
	return Base().WithField("component", component)
}
