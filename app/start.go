package app

import (
	"github.com/spf13/cobra"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode (fast shutdown, console logs)")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the authentication web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(func(c *config.Config) {
				if devMode {
					c.DevMode = true
					c.Log.Console.UseConsoleWriter = true
				}
			})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
