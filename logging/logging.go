package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string
	Format string // text or json
	File   string // empty means stdout only

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	ServiceName string
}

// Setup configures the logrus standard logger.
func Setup(cfg Config) error {
	logger := logrus.StandardLogger()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	logger.SetOutput(out)

	logger.ReplaceHooks(logrus.LevelHooks{})
	logger.AddHook(&DefaultFieldsHook{ServiceName: cfg.ServiceName, ServiceInstance: serviceInstance()})
	return nil
}

type DefaultFieldsHook struct {
	ServiceName     string
	ServiceInstance string
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	if hook.ServiceName != "" {
		e.Data["serviceName"] = hook.ServiceName
	}
	if hook.ServiceInstance != "" {
		e.Data["serviceInstance"] = hook.ServiceInstance
	}
	return nil
}

func serviceInstance() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}
