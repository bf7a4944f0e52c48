// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.DB.Provided)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	want := Config{
		LogLevel: "debug",
		DB: DBConfig{
			Host:     "db.internal",
			DBName:   "banking",
			Port:     5433,
			User:     "app",
			Provided: true,
		},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServiceFromEnv(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-test")
	t.Setenv("XAI_MODEL", "grok-4")
	t.Setenv("API_TIMEOUT", "2.5")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "svc")

	svc, err := ServiceFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "xai-test", svc.APIKey)
	assert.Equal(t, "grok-4", svc.Model)
	assert.Equal(t, DefaultAPIURL, svc.APIURL)
	assert.Equal(t, 2500*time.Millisecond, svc.Timeout)
	assert.Equal(t, 5433, svc.DefaultPort)
	assert.Equal(t, "svc", svc.DBUser)
}

func TestServiceFromEnvRequiresAPIKey(t *testing.T) {
	t.Setenv("XAI_API_KEY", "")

	_, err := ServiceFromEnv()
	assert.Error(t, err)
}

func TestServiceFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("XAI_API_KEY", "xai-test")
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("DB_PORT", "not-a-port")

	svc, err := ServiceFromEnv()
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, svc.Timeout)
	assert.Equal(t, DefaultDBPort, svc.DefaultPort)
}
