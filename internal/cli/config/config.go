// Package config loads framecheck's configuration from defaults, an optional
// framecheck.yaml, FRAMECHECK_-prefixed environment variables and CLI flags,
// in ascending precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults for config keys not set anywhere else.
const (
	DefaultContractPath = "contract.yaml"
	DefaultOutput       = "auto"
	DefaultSeed         = int64(0)
)

// Config is the resolved CLI configuration.
type Config struct {
	// Contract is the default contract file path.
	Contract string `koanf:"contract"`
	// Output selects the rendering mode: auto, text, markdown or json.
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`

	// Validation defaults, overridable per invocation.
	Profile     string  `koanf:"profile"`
	Sample      float64 `koanf:"sample"`
	By          string  `koanf:"by"`
	Seed        int64   `koanf:"seed"`
	MaxExamples int     `koanf:"max_examples"`

	// Diff policy and drift thresholds.
	AdditionsBreaking  bool    `koanf:"additions_breaking"`
	NullRatioThreshold float64 `koanf:"null_ratio_threshold"`
	QuantileThreshold  float64 `koanf:"quantile_threshold"`
	ChurnThreshold     float64 `koanf:"churn_threshold"`
}

var configFileUsed string

// Load resolves the configuration. Precedence, highest first: flags, env
// vars, config file, defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"contract": DefaultContractPath,
		"output":   DefaultOutput,
		"verbose":  false,
		"seed":     DefaultSeed,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	if err := k.Load(env.Provider("FRAMECHECK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FRAMECHECK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	// Env values arrive as strings; weak typing lets them fill numeric keys.
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile picks the config file: explicit path, then framecheck.yaml,
// then framecheck.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"framecheck.yaml", "framecheck.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// FileUsed returns the config file path in effect, if any.
func FileUsed() string { return configFileUsed }
