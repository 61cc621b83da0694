package config

import (
	"os"
	"path/filepath"
	"testing"
	"walletwatch/log"
	"walletwatch/wallet"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func setupConfigTest(t *testing.T) string {
	t.Helper()

	log.Init()
	t.Cleanup(func() { os.Remove("error.log") })

	path := filepath.Join(t.TempDir(), "config.yml")

	viper.Reset()
	t.Cleanup(func() { viper.Reset() })

	viper.SetConfigFile(path)
	setDefaults()

	t.Cleanup(func() { cfg = config{} })

	return path
}

func TestLoadAppliesValidConfig(t *testing.T) {
	path := setupConfigTest(t)

	writeConfigFile(t, path, "pages: 10\nlabel: btc\n")

	require.NoError(t, viper.ReadInConfig())
	require.NoError(t, load(false))

	assert.Equal(t, 10, GetPages())
	assert.Equal(t, "btc", GetLabel())
}

func TestRejectedReloadKeepsOldConfig(t *testing.T) {
	path := setupConfigTest(t)

	writeConfigFile(t, path, "pages: 10\n")
	require.NoError(t, viper.ReadInConfig())
	require.NoError(t, load(false))
	require.Equal(t, 10, GetPages())

	// Same sequence the fsnotify handler runs on a file change.
	writeConfigFile(t, path, "pages: 99\n")
	require.NoError(t, viper.ReadInConfig())
	err := load(false)

	require.ErrorIs(t, err, wallet.ErrPageCount)
	assert.Equal(t, 10, GetPages(), "a rejected reload must not touch the live config")
}

func TestRejectedReloadKeepsEveryOldValue(t *testing.T) {
	path := setupConfigTest(t)

	writeConfigFile(t, path, "pages: 10\nfetch_timeout: 7\n")
	require.NoError(t, viper.ReadInConfig())
	require.NoError(t, load(false))

	// base_url breaks while other keys change too; none may leak through.
	writeConfigFile(t, path, "pages: 30\nfetch_timeout: 3\nbase_url: \"not a url\"\n")
	require.NoError(t, viper.ReadInConfig())
	require.Error(t, load(false))

	assert.Equal(t, 10, GetPages())
	assert.Equal(t, float64(7), GetFetchTimeout().Seconds())
}

func TestCheckRejectsOutOfRangeValues(t *testing.T) {
	valid := config{
		Database:     "wallets.db",
		BaseURL:      "https://example.com/rich-list%s.html",
		Pages:        20,
		FetchTimeout: 10,
		ScheduleHour: 0,
		Listen:       ":8080",
	}

	require.NoError(t, check(valid))

	for name, mutate := range map[string]func(c config) config{
		"pages_low":      func(c config) config { c.Pages = 0; return c },
		"pages_high":     func(c config) config { c.Pages = 51; return c },
		"bad_url":        func(c config) config { c.BaseURL = "ftp://x"; return c },
		"no_placeholder": func(c config) config { c.BaseURL = "https://example.com"; return c },
		"bad_hour":       func(c config) config { c.ScheduleHour = 24; return c },
		"no_timeout":     func(c config) config { c.FetchTimeout = 0; return c },
		"negative_delay": func(c config) config { c.PageDelay = -1; return c },
		"empty_database": func(c config) config { c.Database = ""; return c },
		"empty_listen":   func(c config) config { c.Listen = ""; return c },
	} {
		assert.Error(t, check(mutate(valid)), name)
	}
}
