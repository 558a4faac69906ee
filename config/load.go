package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional file plus IMAGEPIPE_* environment
// variables, layered over the defaults. Pass an empty path to skip the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("imagepipe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
