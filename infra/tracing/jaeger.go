package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

type Config struct {
	Enabled      bool
	ServiceName  string
	AgentHost    string
	SamplerType  string
	SamplerParam float64
}

// InitGlobalTracer installs a jaeger tracer as the opentracing global tracer.
// When tracing is disabled the global noop tracer is left in place.
func InitGlobalTracer(c Config, factory metrics.Factory) (io.Closer, error) {
	if !c.Enabled {
		return noopCloser{}, nil
	}
	if factory == nil {
		factory = metrics.NullFactory
	}
	cfg := jaegercfg.Configuration{
		ServiceName: c.ServiceName,
		Sampler:     &jaegercfg.SamplerConfig{Type: c.SamplerType, Param: c.SamplerParam},
		Reporter:    &jaegercfg.ReporterConfig{LocalAgentHostPort: c.AgentHost},
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(logrusLogger{}), jaegercfg.Metrics(factory))
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

type noopCloser struct{}

func (noopCloser) Close() error {
	return nil
}

type logrusLogger struct{}

func (logrusLogger) Error(msg string) {
	logrus.WithField("component", "jaeger").Error(msg)
}

func (logrusLogger) Infof(msg string, args ...interface{}) {
	logrus.WithField("component", "jaeger").Infof(msg, args...)
}
