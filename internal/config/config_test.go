package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LLM_MODEL", "LLM_TIMEOUT", "CACHE_BACKEND", "CHAT_EXCERPT_SIZE", "LLM_MAX_RETRIES", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gpt-4", cfg.LLMModel)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 0, cfg.LLMMaxRetries)
	assert.Equal(t, 10, cfg.ChatExcerptSize)
	assert.Equal(t, config.CacheMemory, cfg.CacheBackend)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_API_URL", "http://llm.local/v1")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_MAX_RETRIES", "2")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://cards.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://llm.local/v1", cfg.LLMAPIURL)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 2, cfg.LLMMaxRetries)
	assert.Equal(t, config.CacheRedis, cfg.CacheBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"http://localhost:3000", "https://cards.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown cache backend": {"CACHE_BACKEND": "memcached"},
		"negative retries":      {"LLM_MAX_RETRIES": "-1"},
		"port out of range":     {"PORT": "70000"},
		"zero excerpt":          {"CHAT_EXCERPT_SIZE": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7070\nllm_model: gpt-4o-mini\nchat_excerpt_size: 5\n"), 0o600))
	t.Setenv("LLM_MODEL", "from-env")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 5, cfg.ChatExcerptSize)
	assert.Equal(t, "from-env", cfg.LLMModel)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nCARDCOMPARE_TEST_A=from-file\nCARDCOMPARE_TEST_B=\"quoted\"\n"), 0o600))

	t.Setenv("CARDCOMPARE_TEST_A", "from-env")
	t.Setenv("CARDCOMPARE_TEST_B", "")
	os.Unsetenv("CARDCOMPARE_TEST_B")

	require.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))

	assert.Equal(t, "from-env", os.Getenv("CARDCOMPARE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("CARDCOMPARE_TEST_B"))
}
