package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultContractPath, cfg.Contract)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, int64(0), cfg.Seed)
}

func TestLoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "framecheck.yaml")
	content := `contract: contracts/orders.yaml
profile: dev
sample: 0.25
max_examples: 3
additions_breaking: true
null_ratio_threshold: 0.1
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "contracts/orders.yaml", cfg.Contract)
	assert.Equal(t, "dev", cfg.Profile)
	assert.InDelta(t, 0.25, cfg.Sample, 1e-9)
	assert.Equal(t, 3, cfg.MaxExamples)
	assert.True(t, cfg.AdditionsBreaking)
	assert.InDelta(t, 0.1, cfg.NullRatioThreshold, 1e-9)
	assert.Equal(t, cfgPath, FileUsed())
}

func TestEnvOverridesFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "framecheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("profile: from_file\n"), 0o600))

	t.Setenv("FRAMECHECK_PROFILE", "from_env")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Profile)
}

func TestFlagOverridesEnvAndFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "framecheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("contract: from_file.yaml\n"), 0o600))

	t.Setenv("FRAMECHECK_CONTRACT", "from_env.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("contract", "", "contract file path")
	require.NoError(t, flags.Set("contract", "from_flag.yaml"))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag.yaml", cfg.Contract)
}

func TestUnchangedFlagDoesNotOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "framecheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("contract: from_file.yaml\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("contract", "", "contract file path")

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_file.yaml", cfg.Contract)
}

func TestDashedFlagNamesMapToUnderscoreKeys(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-examples", 0, "per-finding example cap")
	require.NoError(t, flags.Set("max-examples", "7"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxExamples)
}
