package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/internal/logging"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logger := logging.New(slog.LevelInfo, &out)
	logger.Debug("mesh built", "triangles", 12)
	logger.Info("converter open", "strategy", "rules")

	text := out.String()
	assert.Assert(t, !strings.Contains(text, "mesh built"))
	assert.Assert(t, strings.Contains(text, "converter open"))
	assert.Assert(t, strings.Contains(text, "strategy=rules"))
}

func TestDebugLevel(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logging.New(slog.LevelDebug, &out).Debug("fallback", "reason", "missing rule")
	assert.Assert(t, strings.Contains(out.String(), "fallback"))
}
