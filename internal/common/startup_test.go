package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Master  string
	Agent   string
	Timeout time.Duration
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ".droverctl.yaml"), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoadConfigReadsFileWithEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := writeConfigFile(t, "master: http://master:5050\nagent: http://agent:5051\ntimeout: 45s\n")
	t.Setenv("DROVER_AGENT", "http://other-agent:5051")

	var config testConfig
	LoadConfig(&config, ".droverctl", dir)

	assert.Equal(t, "http://master:5050", config.Master)
	assert.Equal(t, "http://other-agent:5051", config.Agent)
	assert.Equal(t, 45*time.Second, config.Timeout)
}

func TestLoadConfigToleratesMissingFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var config testConfig
	LoadConfig(&config, ".droverctl", t.TempDir())

	assert.Equal(t, testConfig{}, config)
}

func TestBindCommandlineArgumentsFlagsWinOverConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := writeConfigFile(t, "master: http://from-file:5050\n")

	flags := pflag.NewFlagSet("droverctl", pflag.ContinueOnError)
	flags.String("master", "http://localhost:5050", "")
	require.NoError(t, flags.Parse([]string{"--master", "http://from-flag:5050"}))
	BindCommandlineArguments(flags)

	var config testConfig
	LoadConfig(&config, ".droverctl", dir)

	assert.Equal(t, "http://from-flag:5050", config.Master)
}
