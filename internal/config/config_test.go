package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory with no config file so only defaults apply.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://services.leadconnectorhq.com", cfg.CRM.BaseURL)
	assert.Equal(t, "57", cfg.Lead.DefaultCountryCode)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEADSYNC_CRM_TOKEN", "tok-env")
	t.Setenv("LEADSYNC_CRM_LOCATION_ID", "loc-env")
	t.Setenv("LEADSYNC_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok-env", cfg.CRM.Token)
	assert.Equal(t, "loc-env", cfg.CRM.LocationID)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
crm:
  token: tok-file
  location_id: loc-file
  pipeline_id: pipe-file
lead:
  default_country_code: "52"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok-file", cfg.CRM.Token)
	assert.Equal(t, "pipe-file", cfg.CRM.PipelineID)
	assert.Equal(t, "52", cfg.Lead.DefaultCountryCode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestCRMConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := CRMConfig{Token: "t", LocationID: "l", PipelineID: "p"}

	tests := []struct {
		name    string
		mutate  func(*CRMConfig)
		wantKey string
	}{
		{"all present", func(c *CRMConfig) {}, ""},
		{"missing token", func(c *CRMConfig) { c.Token = "" }, "crm.token"},
		{"blank token", func(c *CRMConfig) { c.Token = "   " }, "crm.token"},
		{"missing location", func(c *CRMConfig) { c.LocationID = "" }, "crm.location_id"},
		{"missing pipeline", func(c *CRMConfig) { c.PipelineID = "" }, "crm.pipeline_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantKey == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var confErr *ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.wantKey, confErr.Key)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
