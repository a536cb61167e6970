package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"host": "localhost", "port": 5432, "user": "u", "password": "p", "db_name": "books"},
		"ai": {
			"provider": "openai",
			"data": {"api_key": "sk-test"},
			"chat_model": "gpt-4o-mini",
			"embed_model": "text-embedding-3-small"
		},
		"file_store": {"type": "local", "dir": "/tmp/covers"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1536, cfg.AI.EmbedDims)
	require.Equal(t, 30, cfg.AI.TimeoutSeconds)
	require.Equal(t, 5, cfg.Recommend.TopK)
	require.Equal(t, 3, cfg.Recommend.RateLimitSeconds)
	require.Equal(t, 100, cfg.Embedding.BatchSize)
	require.Equal(t, 1500, cfg.Embedding.DelayMS)
	require.Equal(t, 5000, cfg.Embedding.BackoffMS)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing port",
			content: `{"jwt_secret": "s"}`,
			wantErr: "port is required",
		},
		{
			name:    "missing jwt secret",
			content: `{"port": 8080}`,
			wantErr: "jwt_secret is required",
		},
		{
			name:    "missing database",
			content: `{"port": 8080, "jwt_secret": "s"}`,
			wantErr: "database.dsn or database.host is required",
		},
		{
			name: "missing ai provider",
			content: `{"port": 8080, "jwt_secret": "s",
				"database": {"dsn": "postgres://x"}}`,
			wantErr: "ai.provider is required",
		},
		{
			name: "local store without dir",
			content: `{"port": 8080, "jwt_secret": "s",
				"database": {"dsn": "postgres://x"},
				"ai": {"provider": "openai", "embed_model": "m"},
				"file_store": {"type": "local"}}`,
			wantErr: "file_store.dir is required",
		},
		{
			name: "unknown store type",
			content: `{"port": 8080, "jwt_secret": "s",
				"database": {"dsn": "postgres://x"},
				"ai": {"provider": "openai", "embed_model": "m"},
				"file_store": {"type": "ftp"}}`,
			wantErr: "file_store.type must be local or s3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
