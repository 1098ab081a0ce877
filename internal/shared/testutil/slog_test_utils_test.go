package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "parser")).Info("from child")
		logger.Info("from parent")

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "parser"))
		assert.NotContains(t, handler.GetRecords()[1].Attrs, "component")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}

func TestWorkbookBytes(t *testing.T) {
	data := WorkbookBytes(t,
		Sheet{Name: "Notes", Rows: [][]any{{"nothing here"}}},
		Sheet{Name: "Holdings", Rows: BrokerExportRows()},
	)
	assert.NotEmpty(t, data)
	assert.Equal(t, []byte("PK"), data[:2])
}

func TestCSVBytes(t *testing.T) {
	data := CSVBytes(t, [][]string{{"symbol", "quantity"}, {"AAPL", "10"}})
	assert.Equal(t, "symbol,quantity\nAAPL,10\n", string(data))
}
