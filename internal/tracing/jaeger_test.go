package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaegerConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		cfg       JaegerConfig
		collector string
		agent     string
	}{
		{
			name:  "agent",
			cfg:   JaegerConfig{AgentHost: "jaeger", AgentPort: "6831"},
			agent: "jaeger:6831",
		},
		{
			name:      "collector wins",
			cfg:       JaegerConfig{Endpoint: "http://collector:14268/api/traces", AgentHost: "jaeger", AgentPort: "6831"},
			collector: "http://collector:14268/api/traces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg.configuration()

			assert.Equal(t, tt.collector, cfg.Reporter.CollectorEndpoint)
			assert.Equal(t, tt.agent, cfg.Reporter.LocalAgentHostPort)
			assert.True(t, cfg.Disabled)
		})
	}
}
