package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "careboard.yaml"

// ConfigFileNameAlt is the alternate config file name.
const ConfigFileNameAlt = "careboard.yml"

// findConfigFile picks the config file to use.
// Priority: explicit path > careboard.yaml > careboard.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// CAREBOARD_ENGINE__TYPE -> engine.type; a single underscore maps
	// to the key's own snake_case (CAREBOARD_QUERY_TIMEOUT -> query_timeout).
	if err := k.Load(env.Provider("CAREBOARD_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CAREBOARD_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			// Flags are kebab-case and flat; map them onto the nested
			// config keys they control.
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "addr":
				key = "server.addr"
			case "engine", "engine_type":
				key = "engine.type"
			case "engine_path":
				key = "engine.path"
			case "templates_file":
				key = "seeds.templates_file"
			case "datasets_dir":
				key = "seeds.datasets_dir"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
