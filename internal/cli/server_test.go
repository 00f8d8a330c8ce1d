package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quiz-result-service/internal/config"
)

func TestBuildServiceRunsInMemoryWithoutBackends(t *testing.T) {
	ctx := context.Background()
	built, err := buildService(ctx, config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer built.close()

	require.NotNil(t, built.publisher)
	assert.False(t, built.publisher.Enabled(), "no amqp url means events are dropped")

	progress, err := built.service.StartAttempt(ctx, "english-basics", "u1")
	require.NoError(t, err)
	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		_, err := built.service.RecordAnswer(ctx, progress.AttemptID, q, q+"-a")
		require.NoError(t, err)
	}
	result, err := built.service.Submit(ctx, progress.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Percentage)
}

func TestBuildServiceRejectsRelativeRemoteURL(t *testing.T) {
	cfg := config.Config{}
	cfg.Remote.BaseURL = "/upstream"
	_, err := buildService(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
