package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/config"
)

func TestInitializeDisabled(t *testing.T) {
	err := Initialize(config.TracingConfig{Enabled: false}, "test", logrus.New())
	require.NoError(t, err)
	assert.False(t, Enabled())
}

func TestHelpersAreNoOpsWhenDisabled(t *testing.T) {
	require.NoError(t, Initialize(config.TracingConfig{}, "test", logrus.New()))

	ctx := context.Background()
	segCtx, seg := StartSegment(ctx, "run")
	assert.Nil(t, seg)
	assert.Equal(t, ctx, segCtx)

	subCtx, sub := StartSubsegment(ctx, "stage")
	assert.Nil(t, sub)
	assert.Equal(t, ctx, subCtx)

	assert.NotPanics(t, func() {
		AddAnnotation(ctx, "run_id", "abc")
		AddMetadata(ctx, "stats", map[string]int{"quotes": 1})
		End(nil, errors.New("boom"))
	})

	client := &http.Client{}
	assert.Same(t, client, WrapClient(client))
}
