package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/authenticator/authenticator/internal/daemon"
	"github.com/authenticator/authenticator/internal/directory"
)

// ErrNoDirectory is returned when the configuration yields no directory authority.
var ErrNoDirectory = errors.New("no directory configured")

func init() { //nolint: gochecknoinits
	directoryCheckCmd.Flags().StringVar(&lookupEmail, "email", "", "look up this account after connecting")

	directoryCmd.AddCommand(directoryCheckCmd)
	rootCmd.AddCommand(directoryCmd)
}

var (
	lookupEmail string

	directoryCmd = &cobra.Command{
		Use:   "directory",
		Short: "Inspect the configured directory",
	}

	directoryCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Test the directory connection and service account",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: directoryCheck,
	}
)

func directoryCheck(cmd *cobra.Command, _ []string) error {
	// check even when only hybrid or provisioning would use it
	dirCfg := cfg
	dirCfg.Directory.ProvisioningEnabled = true

	authority, err := daemon.Authority(&dirCfg)
	if err != nil {
		return err
	}
	if authority == nil {
		return fmt.Errorf("%w: backend %s needs url, base dn, bind dn and bind password", ErrNoDirectory, cfg.Directory.Backend)
	}

	out := cmd.OutOrStdout()

	if p, ok := authority.(directory.Pinger); ok {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Directory.AuthTimeout)
		defer cancel()

		start := time.Now()
		if err = p.Ping(ctx); err != nil {
			return err
		}

		fmt.Fprintf(out, "connected to %s (%s) in %s\n", cfg.Directory.Backend, cfg.Directory.URL, time.Since(start).Round(time.Millisecond)) //nolint:errcheck
	}

	if lookupEmail == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Directory.AuthTimeout)
	defer cancel()

	account, err := authority.FindAccount(ctx, lookupEmail)
	if err != nil {
		return err
	}

	printTable(out, []string{"Attribute", "Value"}, [][]string{
		{"dn", account.DN},
		{"displayName", account.DisplayName},
		{"cn", account.CommonName},
		{"userPrincipalName", account.PrincipalName},
		{"mail", account.Email},
		{"sAMAccountName", account.AccountName},
		{"enabled", strconv.FormatBool(account.Enabled)},
	})

	return nil
}
