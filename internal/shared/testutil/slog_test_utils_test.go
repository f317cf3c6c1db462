package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the store", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "ingest")).Warn("skipped file")

		assert.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "ingest"))
		AssertLogContains(t, handler, slog.LevelWarn, "skipped")
	})
}

func TestLossCSV(t *testing.T) {
	data := LossCSV(
		[]string{"PLAZA", "DESC_ARTICULO"},
		[]string{"100", "CAFÉ"},
	)
	// ISO-8859-1 encodes É as a single byte
	assert.Contains(t, string(data), "CAF\xc9")
}
