package mqtt_client

import (
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Module-level logger with pre-configured module field
var logger = logrus.WithField("module", "mqtt_client")

// pahoLogger forwards paho's internal log lines into logrus at a fixed level.
type pahoLogger struct {
	entry *logrus.Entry
	level logrus.Level
}

func (l pahoLogger) Println(v ...interface{}) {
	l.entry.Logln(l.level, v...)
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.entry.Logf(l.level, format, v...)
}

var installPahoLoggersOnce sync.Once

// installPahoLoggers routes paho's package-level loggers into logrus. Debug output is
// only wired when trace logging is enabled since paho is very chatty at that level.
func installPahoLoggers() {
	installPahoLoggersOnce.Do(func() {
		paho := logger.WithField("component", "paho")
		mqtt.ERROR = pahoLogger{entry: paho, level: logrus.ErrorLevel}
		mqtt.CRITICAL = pahoLogger{entry: paho, level: logrus.ErrorLevel}
		mqtt.WARN = pahoLogger{entry: paho, level: logrus.WarnLevel}
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			mqtt.DEBUG = pahoLogger{entry: paho, level: logrus.TraceLevel}
		}
	})
}
