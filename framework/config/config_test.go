package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/config"
)

var keys = []string{
	"APP_NAME", "APP_ENV", "APP_DEBUG", "APP_PORT", "APP_TIMEZONE",
	"LOG_LEVEL", "LOG_FORMAT",
	"RESOLVER_MANIFEST", "RESOLVER_WORKERS", "RESOLVER_STRICT",
}

// ── helpers ──────────────────────────────────────────────────────────────────

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "") // restored after the test
		require.NoError(t, os.Unsetenv(k))
	}
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("testdata/empty.env")
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "go-resolver"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Debug", cfg.App.Debug, true},
		{"App.Port", cfg.App.Port, "8000"},
		{"App.Timezone", cfg.App.Timezone, "UTC"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "console"},
		{"Resolver.Manifest", cfg.Resolver.Manifest, ""},
		{"Resolver.Workers", cfg.Resolver.Workers, 2},
		{"Resolver.Strict", cfg.Resolver.Strict, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Equal(t, ":8000", cfg.Addr())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("testdata/app.env")
	require.NoError(t, err)

	assert.Equal(t, "resolver-demo", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Resolver.Workers)
	assert.True(t, cfg.Resolver.Strict)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_NAME", "MyApp")
	t.Setenv("APP_PORT", "9000")

	cfg, err := config.Load("testdata/app.env")
	require.NoError(t, err)

	assert.Equal(t, "MyApp", cfg.App.Name)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testing", cfg.App.Env, "unset keys still come from the file")
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	clearEnv(t)
	_, err := config.Load("testdata/does-not-exist.env")
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, val string
		want     string
	}{
		{"APP_ENV", "moon", "The selected app.env is invalid."},
		{"APP_PORT", "http", "The app.port must be a number."},
		{"APP_TIMEZONE", "Mars/Olympus", "The app.timezone must be a valid time zone."},
		{"LOG_LEVEL", "loud", "The selected log.level is invalid."},
		{"LOG_FORMAT", "xml", "The selected log.format is invalid."},
		{"RESOLVER_WORKERS", "0", "The resolver.workers must be greater than or equal to 1."},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load("testdata/empty.env")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_AppDebugFalse(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_DEBUG", "false")
	cfg, err := config.Load("testdata/empty.env")
	require.NoError(t, err)
	assert.False(t, cfg.App.Debug)
}

func TestAppConfig_Location(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	cfg, err := config.Load("testdata/empty.env")
	require.NoError(t, err)

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = config.AppConfig{Timezone: "Nowhere/Else"}.Location()
	assert.Error(t, err)
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet(t *testing.T) {
	t.Setenv("CUSTOM_KEY", "hello")
	assert.Equal(t, "hello", config.Get("CUSTOM_KEY", "default"))
	assert.Equal(t, "fallback", config.Get("MISSING_KEY_FOR_TEST", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, config.GetInt("SOME_INT", 0))

	t.Setenv("SOME_INT", "notanint")
	assert.Equal(t, 99, config.GetInt("SOME_INT", 99))
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		t.Setenv("BOOL_KEY", val)
		assert.True(t, config.GetBool("BOOL_KEY", false), val)
	}

	t.Setenv("BOOL_KEY", "false")
	assert.False(t, config.GetBool("BOOL_KEY", true))

	t.Setenv("BOOL_KEY", "notabool")
	assert.True(t, config.GetBool("BOOL_KEY", true))
}
