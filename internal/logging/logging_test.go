package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/mochi/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    logging.Options
		check   func(t *testing.T, out string)
		wantErr bool
	}{
		{
			name: "Text",
			opts: logging.Options{Level: "info", Format: "text"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "msg=hello")
				assert.NotContains(t, out, "hidden")
			},
		},
		{
			name: "JSONDebug",
			opts: logging.Options{Level: "debug", Format: "json"},
			check: func(t *testing.T, out string) {
				lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
				require.Len(t, lines, 2)

				var entry map[string]any
				require.NoError(t, json.Unmarshal(lines[1], &entry))
				assert.Equal(t, "hello", entry["msg"])
			},
		},
		{name: "BadLevel", opts: logging.Options{Level: "loud"}, wantErr: true},
		{name: "BadFormat", opts: logging.Options{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger, closer, err := logging.New(&buf, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			defer closer.Close()

			logger.Debug("hidden")
			logger.Info("hello")

			tt.check(t, buf.String())
		})
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mochi.log")

	var buf bytes.Buffer

	logger, closer, err := logging.New(&buf, logging.Options{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Warn("disk almost full")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "disk almost full")
	assert.Equal(t, buf.String(), string(data))
}
