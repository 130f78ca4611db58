package tracing

import (
	"io"
	"net"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-client-go/log/zap"

	"github.com/relocrm/leadstack/internal/logger"
)

// JaegerConfig selects where spans go. A collector endpoint wins over the agent.
type JaegerConfig struct {
	Endpoint          string  `env:"JAEGER_ENDPOINT"`
	CollectorUser     string  `env:"JAEGER_USER"`
	CollectorPassword string  `env:"JAEGER_PASSWORD"`
	ServiceName       string  `env:"JAEGER_SERVICE_NAME" envDefault:"leadstack"`
	AgentHost         string  `env:"JAEGER_AGENT_HOST" envDefault:"localhost"`
	AgentPort         string  `env:"JAEGER_AGENT_PORT" envDefault:"6831"`
	Enabled           bool    `env:"JAEGER_ENABLED" envDefault:"false"`
	LogSpans          bool    `env:"JAEGER_REPORTER_LOG_SPANS" envDefault:"false"`
	SamplerType       string  `env:"JAEGER_SAMPLER_TYPE" envDefault:"const"`
	SamplerParam      float64 `env:"JAEGER_SAMPLER_PARAM" envDefault:"1"`
}

// NewJaegerTracer builds the process tracer. When tracing is disabled the jaeger
// client hands back a no-op tracer, so callers always get something to install.
func NewJaegerTracer(jaegerConfig *JaegerConfig, log logger.Logger) (opentracing.Tracer, io.Closer, error) {
	return jaegerConfig.configuration().NewTracer(config.Logger(zap.NewLogger(log.Logger())))
}

func (c *JaegerConfig) configuration() *config.Configuration {
	reporter := &config.ReporterConfig{LogSpans: c.LogSpans}
	if c.Endpoint != "" {
		reporter.CollectorEndpoint = c.Endpoint
		reporter.User = c.CollectorUser
		reporter.Password = c.CollectorPassword
	} else {
		reporter.LocalAgentHostPort = net.JoinHostPort(c.AgentHost, c.AgentPort)
	}

	return &config.Configuration{
		ServiceName: c.ServiceName,
		Disabled:    !c.Enabled,
		Sampler: &config.SamplerConfig{
			Type:  c.SamplerType,
			Param: c.SamplerParam,
		},
		Reporter: reporter,
	}
}
