package logsvc

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/perftracker/core"
)

func TestLogger_fields(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := newWithCore(obs)

	l.Info("student added", map[string]interface{}{"roll_number": "A1"})
	l.Error("saving grade", errors.New("disk full"), 42)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "student added", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"roll_number": "A1"}, entries[0].ContextMap())

	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{"error": "disk full", "arg1": int64(42)}, entries[1].ContextMap())
}

func TestNew(t *testing.T) {
	l, err := New("test", &core.Config{Env: "TEST", Debug: true, RollbarToken: "token"})
	require.NoError(t, err)
	assert.False(t, l.rollbar)

	l, err = New("test", &core.Config{Env: "TEST", TestMode: true, RollbarToken: "token"})
	require.NoError(t, err)
	assert.False(t, l.rollbar)

	assert.NotPanics(t, func() { NewNop().Warn("ignored", errors.New("boom")) })
}

func Test_stackTracer(t *testing.T) {
	frames, ok := stackTracer(errors.Wrap(fmt.Errorf("disk full"), "upserting grade"))
	assert.True(t, ok)
	assert.NotEmpty(t, frames)

	_, ok = stackTracer(fmt.Errorf("disk full"))
	assert.False(t, ok)
}
