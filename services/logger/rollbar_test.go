package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
)

func newObservedLogger(t *testing.T) (*RollbarLogger, *observer.ObservedLogs) {
	t.Helper()
	zcore, logs := observer.New(zapcore.DebugLevel)
	conf := &core.Config{Env: "TEST", Debug: true, AppName: "My Feedback"}
	return NewRollbarLogger(zap.New(zcore), conf), logs
}

func TestRollbarLogger_levels(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "error msg", entries[3].Message)
}

func TestRollbarLogger_fields(t *testing.T) {
	logger, logs := newObservedLogger(t)

	usr := feedback.User{ID: 42, Username: "ada", Email: "ada@example.com"}
	other := feedback.User{ID: 7}
	logger.Error("boom",
		errors.New("db is down"),
		usr,
		other,
		map[string]interface{}{"request_id": "abc"},
		"extra",
	)

	entries := logs.FilterMessage("boom").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	assert.Equal(t, "db is down", fields["error"])
	assert.Equal(t, int64(42), fields["user_id"], "only the first user is recorded")
	assert.Equal(t, map[string]interface{}{"request_id": "abc"}, fields["extras"])
	assert.Equal(t, "extra", fields["arg4"])
}

func TestRollbarLogger_Zap(t *testing.T) {
	logger, logs := newObservedLogger(t)

	logger.Zap().Named("db").Info("direct")

	entries := logs.FilterMessage("direct").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "db", entries[0].LoggerName)
	assert.NoError(t, logger.Sync())
}
