package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATASTORE_TYPE", "STORAGE_DIR", "LLM_PROVIDER",
		"PROVIDER_A_BASE_URL", "PROVIDER_A_API_KEY", "PROVIDER_A_MODEL",
		"PROVIDER_B_BASE_URL", "PROVIDER_B_API_KEY", "PROVIDER_B_MODEL",
		"SCHEMA_MODEL", "CORS_ORIGINS", "DEFAULT_TIMEOUT", "DEFAULT_RETRIES",
		"MAX_SYNTHESIS_RETRIES", "ENABLE_DOC_FETCH",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DatastoreMemory, cfg.Datastore)
	assert.Equal(t, "A", cfg.ActiveProvider)
	assert.Equal(t, 5, cfg.DefaultRetries)
	assert.Equal(t, time.Second, cfg.DefaultRetryDelay)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.DocsFetchEnabled)
}

func TestLoadDocsFetchDisabled(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENABLE_DOC_FETCH", "false")
	defer os.Unsetenv("ENABLE_DOC_FETCH")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.DocsFetchEnabled)
}

func TestLoadInvalidDatastore(t *testing.T) {
	clearEnv(t)
	os.Setenv("DATASTORE_TYPE", "bogus")
	defer os.Unsetenv("DATASTORE_TYPE")
	_, err := Load()
	assert.Error(t, err)
}

func TestSchemaGenModelFallsBackToProvider(t *testing.T) {
	clearEnv(t)
	os.Setenv("PROVIDER_A_MODEL", "gpt-test")
	defer os.Unsetenv("PROVIDER_A_MODEL")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.SchemaGenModel())
}

func TestGetEnvSliceParsesCSV(t *testing.T) {
	clearEnv(t)
	os.Setenv("CORS_ORIGINS", "https://a.com, https://b.com")
	defer os.Unsetenv("CORS_ORIGINS")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSOrigins)
}
