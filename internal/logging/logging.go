package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a root logger. format is "json" or "text".
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	hostname, _ := os.Hostname()
	log.AddHook(hostHook{hostname: hostname})
	return log
}

// For returns an entry tagged with the component name.
func For(log logrus.FieldLogger, service string) *logrus.Entry {
	return log.WithField("service", service)
}

type hostHook struct {
	hostname string
}

func (hostHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h hostHook) Fire(e *logrus.Entry) error {
	e.Data["hostname"] = h.hostname
	return nil
}
