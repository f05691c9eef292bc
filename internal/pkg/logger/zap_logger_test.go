package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLoggerWritesJSONLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	l := NewZapLogger(path, true)

	l.Debug("Test", "below file level", nil)
	l.Info("ChatPipeline", "answer received", map[string]interface{}{"sources": 2})
	l.Error("ChatPipeline", "answer failed", map[string]interface{}{"error": errors.New("boom")})
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "ChatPipeline", lines[0]["module"])
	assert.Equal(t, "answer received", lines[0]["message"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("Test", "nothing", nil)
		l.Error("Test", "nothing", map[string]interface{}{"error": "not an error value"})
	})
}
