// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "authenticator",
	Short: "Authenticator is a hybrid authentication service with directory provisioning",
	Long: `Authenticator verifies credentials against a local user store, an
LDAP / Active Directory server or both, issues signed access tokens and
mirrors account lifecycle changes into the directory.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	configPath string // Path to the configuration directory
	cfg        config.Config
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory holding main.toml")
}

// loadConfig reads the configuration, applies command line overrides and
// initializes logging.
func loadConfig(overrides ...func(*config.Config)) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	for _, o := range overrides {
		o(&cfg)
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
