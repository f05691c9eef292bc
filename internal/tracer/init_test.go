package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmarag-chat/internal/config"
	"pharmarag-chat/internal/pkg/logger"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{Enabled: false}, logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}
