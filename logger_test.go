package casewatch_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autom8ter/casewatch"
)

func TestLogger(t *testing.T) {
	t.Run("debug", func(t *testing.T) {
		logger, err := casewatch.NewLogger("debug", map[string]any{})
		assert.Nil(t, err)
		assert.NotNil(t, logger)
		logger.Debug(context.Background(), "debug logger", nil)
	})
	t.Run("info", func(t *testing.T) {
		logger, err := casewatch.NewLogger("info", map[string]any{"service": "casewatch"})
		assert.Nil(t, err)
		assert.NotNil(t, logger)
		logger.Info(context.Background(), "info logger", map[string]any{"document_id": "c1"})
	})
	t.Run("warn", func(t *testing.T) {
		logger, err := casewatch.NewLogger("warning", map[string]any{})
		assert.Nil(t, err)
		assert.NotNil(t, logger)
		logger.Warn(context.Background(), "warn logger", nil)
	})
	t.Run("error", func(t *testing.T) {
		logger, err := casewatch.NewLogger("error", map[string]any{})
		assert.Nil(t, err)
		assert.NotNil(t, logger)
		logger.Error(context.Background(), "error logger", fmt.Errorf("this is an error"), nil)
	})
	t.Run("nop", func(t *testing.T) {
		logger := casewatch.NopLogger()
		logger.Error(context.Background(), "discarded", fmt.Errorf("this is an error"), nil)
	})
}
