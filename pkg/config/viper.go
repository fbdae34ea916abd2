package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/workcharge/charge/pkg/dotdir"
)

// EnvPrefix namespaces environment overrides: agent.base_url is read from
// CHARGE_AGENT_BASE_URL.
const EnvPrefix = "CHARGE"

// InitViper layers, lowest first, NewDefaultConfig(), the config.toml of
// the resolved .charge/ directory and CHARGE_ environment variables. Flags
// bound later through BindRegisteredFlags sit on top.
func InitViper(configDir string) (*viper.Viper, error) {
	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault("version", CurrentV)
	for key, val := range defaultValues() {
		v.SetDefault(key, val)
	}

	v.SetConfigName(strings.TrimSuffix(configFile, ".toml"))
	v.SetConfigType("toml")
	v.AddConfigPath(target)

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// defaultValues renders NewDefaultConfig() as dotted key to string value.
// Keys without a default map to "" so AutomaticEnv still sees them.
func defaultValues() map[string]string {
	d := NewDefaultConfig()
	out := make(map[string]string, len(keyOrder))
	for _, key := range keyOrder {
		out[key] = configKeys[key].get(d)
	}
	return out
}

func defaultString(viperKey string) string {
	return defaultValues()[viperKey]
}

func defaultUint(viperKey string) uint {
	n, _ := strconv.ParseUint(defaultValues()[viperKey], 10, 64)
	return uint(n)
}
