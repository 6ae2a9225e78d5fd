package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

// addConfigFlag registers --config and prepares viper to read it together
// with the {NAME}_ environment variables.
func addConfigFlag(name string, fs *pflag.FlagSet) *string {
	cfgFile := fs.StringP(configFlagName, "c", "", "Read configuration from the specified file; supports JSON, TOML, YAML, HCL, or Java properties formats.")

	prefix := strings.ToUpper(strings.ReplaceAll(filepath.Base(name), "-", "_"))
	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	return cfgFile
}

// loadConfig merges the config file, the environment and fs into opts.
// Flags set on the command line win over the environment, which wins over the file.
func loadConfig(cfgFile string, fs *pflag.FlagSet, opts any) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %s: %w", cfgFile, err)
		}
	}

	if err := viper.BindPFlags(fs); err != nil {
		return err
	}
	if err := viper.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}
