package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engage/pkg/config"
	"engage/pkg/secrets"
)

func TestValidatePostURL(t *testing.T) {
	u, err := validatePostURL(" https://www.linkedin.com/feed/update/urn:li:activity:1/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:1/", u)

	for _, bad := range []string{"", "urn:li:activity:1", "ftp://example.com/x", "https://"} {
		_, err := validatePostURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestCollectFlagMapOnlyChanged(t *testing.T) {
	require.NoError(t, collectCmd.Flags().Set("webhook", "https://hooks.example.com/in"))
	require.NoError(t, collectCmd.Flags().Set("max", "150"))
	t.Cleanup(func() {
		collectCmd.Flags().Lookup("webhook").Changed = false
		collectCmd.Flags().Lookup("max").Changed = false
		collectFlags.webhook = ""
		collectFlags.max = 0
	})

	flags := collectFlagMap(collectCmd)
	assert.Equal(t, "https://hooks.example.com/in", flags["webhook"])
	assert.Equal(t, 150, flags["max"])
	assert.NotContains(t, flags, "mode")
	assert.NotContains(t, flags, "headless")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, config.ModeRemote, cfg.Export.Mode)
	assert.Equal(t, 150, cfg.Collection.GlobalCap)
}

func TestReadSecretFromPipe(t *testing.T) {
	v, err := readSecret(strings.NewReader("  s3cret-token \n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-token", v)

	v, err = readSecret(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", v)

	_, err = readSecret(strings.NewReader(""))
	assert.Error(t, err)
}

func TestTokenName(t *testing.T) {
	assert.Equal(t, secrets.DefaultName, tokenName(nil))
	assert.Equal(t, secrets.DefaultName, tokenName([]string{"  "}))
	assert.Equal(t, "crm", tokenName([]string{"crm"}))
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engage.toml")
	var out bytes.Buffer
	configInitCmd.SetOut(&out)

	require.NoError(t, runConfigInit(configInitCmd, []string{path}))
	assert.Contains(t, out.String(), "engage collect <post-url>")

	cfg := config.DefaultConfig()
	cfg.Collection.GlobalCap = 1
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 2000, cfg.Collection.GlobalCap)

	assert.Error(t, runConfigInit(configInitCmd, []string{path}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestDescribeExport(t *testing.T) {
	c := config.DefaultConfig().Export
	assert.Equal(t, "CSV in .", describeExport(&c))

	c.Mode = config.ModeRemote
	c.Endpoint = "https://hooks.example.com/in"
	assert.Equal(t, "webhook https://hooks.example.com/in (local fallback in .)", describeExport(&c))
}
