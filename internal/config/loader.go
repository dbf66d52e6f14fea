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

	"github.com/go-mizu/xorm/pool"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: XORM_DATABASE__HOST sets database.host.
const EnvPrefix = "XORM_"

// DefaultFiles are searched in the working directory when no file is given.
var DefaultFiles = []string{"xorm.yaml", "xorm.yml"}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"host":     "database.host",
	"port":     "database.port",
	"user":     "database.user",
	"password": "database.password",
	"db":       "database.db",
	"verbose":  "verbose",
}

// Load loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// It returns the config and the file that was read, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	d := pool.Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database.host":       d.Host,
		"database.port":       d.Port,
		"database.charset":    d.Charset,
		"database.autocommit": d.AutoCommit,
		"database.maxsize":    d.MaxSize,
		"database.minsize":    d.MinSize,
		"verbose":             false,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if cfgFile != "" && used == "" {
		return nil, "", fmt.Errorf("config file %s not found", cfgFile)
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// Transform: XORM_DATABASE__HOST -> database.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, used, nil
}

// findConfigFile returns the explicit path if it exists, else the first
// default file present in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
