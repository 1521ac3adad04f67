// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.Set("app.login_url", "https://intranet.example.com/login")
	v.Set("auth.username", "operator")
	v.Set("auth.password", "hunter2")
	return v
}

func TestNewDefaultConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 15*time.Second, cfg.Timeouts.Default)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Short)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Long)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, 3, cfg.Retry.DropdownAttempts)

	assert.Equal(t, "/project-management/configuring/dp/create-ticket", cfg.Correlate.URLFragment)
	assert.Equal(t, 120*time.Second, cfg.Correlate.ResponseTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Correlate.PollInterval)

	assert.Equal(t, time.Second, cfg.Batch.ItemPause)
	assert.Equal(t, "master_data_dp.csv", cfg.Data.MasterFile)
	assert.Equal(t, "input_dp.txt", cfg.Data.WorklistFile)

	assert.False(t, cfg.Browser.Headless)
	assert.Contains(t, cfg.Browser.UserAgent, "Chrome/120")

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Logger.LogFile)
}

func TestNewDefaultConfig_SelectorCatalog(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "#vs1__combobox > div.vs__selected-options > input", cfg.Selectors.CityInput[0])
	assert.Len(t, cfg.Selectors.CityInput, 3)
	assert.Equal(t, []string{"#sidebar"}, cfg.Selectors.Sidebar)
	assert.Equal(t, "//td[contains(text(),'No data available in table')]", cfg.Selectors.NoDataMessage[0])
	require.NoError(t, cfg.Selectors.Validate())
}

func TestNewConfigFromViper_Valid(t *testing.T) {
	cfg, err := NewConfigFromViper(newValidViper(t))
	require.NoError(t, err)
	assert.Equal(t, "operator", cfg.Auth.Username)
	assert.Equal(t, "https://intranet.example.com/login", cfg.App.LoginURL)
}

func TestNewConfigFromViper_RequiresLoginURL(t *testing.T) {
	v := newValidViper(t)
	v.Set("app.login_url", "")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.login_url")
}

func TestNewConfigFromViper_RejectsNonHTTPLoginURL(t *testing.T) {
	v := newValidViper(t)
	v.Set("app.login_url", "ftp://intranet.example.com/login")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}

func TestNewConfigFromViper_RequiresCredentials(t *testing.T) {
	v := newValidViper(t)
	v.Set("auth.password", "")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.password")
}

func TestNewConfigFromViper_CredentialsFromEnv(t *testing.T) {
	t.Setenv("DPBOT_AUTH_USERNAME", "env-operator")
	t.Setenv("DPBOT_AUTH_PASSWORD", "env-secret")

	v := viper.New()
	SetDefaults(v)
	v.Set("app.login_url", "https://intranet.example.com/login")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "env-operator", cfg.Auth.Username)
	assert.Equal(t, "env-secret", cfg.Auth.Password)
}

func TestNewConfigFromViper_SelectorOverride(t *testing.T) {
	v := newValidViper(t)
	v.Set("selectors.city_input", []string{"#new-city input"})

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"#new-city input"}, cfg.Selectors.CityInput)
	// Untouched entries keep their defaults.
	assert.Len(t, cfg.Selectors.RKInput, 2)
}

func TestValidate_RetryBounds(t *testing.T) {
	v := newValidViper(t)
	v.Set("retry.max_attempts", 0)
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts")
}

func TestValidate_TimeoutsPositive(t *testing.T) {
	v := newValidViper(t)
	v.Set("timeouts.short", "0s")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeouts")
}

func TestValidate_CorrelateFragmentRequired(t *testing.T) {
	v := newValidViper(t)
	v.Set("correlate.url_fragment", "")
	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correlate.url_fragment")
}

func TestSelectors_ValidateRejectsEmptyEntry(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Selectors.FilterButton = nil
	err := cfg.Selectors.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selectors.filter_button")
}
