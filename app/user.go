package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/authenticator/authenticator/internal/auth"
	"github.com/authenticator/authenticator/internal/daemon"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	controller "github.com/authenticator/authenticator/internal/db/controller/user"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/password"
	"github.com/authenticator/authenticator/internal/provision"
	"github.com/authenticator/authenticator/internal/validate"
	"github.com/authenticator/authenticator/internal/web/handler"
)

const consoleAgent = "console"

func init() { //nolint: gochecknoinits
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleUser), "user, admin or superadmin")
	userCreateCmd.Flags().StringVar(&userAccountName, "account-name", "", "directory logon name, derived from the email when empty")
	userCreateCmd.Flags().BoolVar(&userGenerate, "generate", false, "generate the password instead of prompting")
	_ = userCreateCmd.MarkFlagRequired("email") //nolint:errcheck

	userDeleteCmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	userResetCmd.Flags().BoolVar(&userGenerate, "generate", false, "generate the password instead of prompting")

	userCmd.AddCommand(userListCmd, userCreateCmd, userSetRoleCmd, userDeleteCmd, userResetCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	deps *handler.Deps

	userName        string
	userEmail       string
	userRole        string
	userAccountName string
	userGenerate    bool
	force           bool

	userCmd = &cobra.Command{
		Use:               "user",
		Short:             "Manage local accounts from the console",
		PersistentPreRunE: bootstrap,
	}

	userListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE:  userList,
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a local account and provision it in the directory",
		Args:  cobra.NoArgs,
		RunE:  userCreate,
	}

	userSetRoleCmd = &cobra.Command{
		Use:   "set-role EMAIL ROLE",
		Short: "Change the role of an account",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  userSetRole,
	}

	userDeleteCmd = &cobra.Command{
		Use:   "delete EMAIL",
		Short: "Delete an account locally and in the directory",
		Args:  cobra.ExactArgs(1),
		RunE:  userDelete,
	}

	userResetCmd = &cobra.Command{
		Use:   "reset-password EMAIL",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE:  userResetPassword,
	}
)

// bootstrap reads the configuration and opens the stores without serving HTTP.
func bootstrap(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	var err error

	deps, err = daemon.Bootstrap(cmd.Context(), &cfg)

	return err
}

func record(cmd *cobra.Command, u *models.User, t models.ActivityType, description string) {
	deps.Activity.Log(cmd.Context(), activity.Entry{
		UserID:      u.ID,
		Type:        t,
		Description: description,
		UserAgent:   consoleAgent,
	})
}

// newPassword generates or prompts for a password.
func newPassword(cmd *cobra.Command) (string, error) {
	if !userGenerate {
		return promptPassword(deps.Validator.MinLength())
	}

	secret, err := password.Generate(password.GeneratedLen)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "generated password: %s\n", secret) //nolint:errcheck

	return secret, nil
}

func userList(cmd *cobra.Command, _ []string) error {
	users, err := deps.Users.List(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		authority := "local"
		if u.DirectoryManaged() {
			authority = "directory"
		}

		rows = append(rows, []string{
			strconv.FormatUint(u.ID, 10),
			u.Name,
			u.Email,
			string(u.Role),
			authority,
			u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Email", "Role", "Password", "Created"}, rows)

	return nil
}

func userCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	name := userName
	if name == "" {
		name = userEmail
	}

	secret, err := newPassword(cmd)
	if err != nil {
		return err
	}

	in := &validate.CreateUser{
		Name:        name,
		Email:       userEmail,
		Password:    secret,
		Role:        userRole,
		AccountName: userAccountName,
	}
	if err = deps.Validator.Struct(in); err != nil {
		return err
	}

	hash, err := deps.Hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	u, err := deps.Users.Create(ctx, in.Name, in.Email, &hash, models.Role(in.Role))
	if err != nil {
		return err
	}

	record(cmd, u, models.ActivityUserCreated, fmt.Sprintf("Created user %s (%s) with role %s from console", u.Name, u.Email, u.Role))
	fmt.Fprintf(cmd.OutOrStdout(), "created user %d %s (%s)\n", u.ID, u.Email, u.Role) //nolint:errcheck

	printOutcome(cmd.OutOrStdout(), deps.Provisioner.CreateAccount(ctx, provision.NewUser{
		Name:        u.Name,
		Email:       u.Email,
		Password:    in.Password,
		AccountName: in.AccountName,
	}))

	return nil
}

func userSetRole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	role := models.Role(args[1])
	if !role.Valid() {
		return fmt.Errorf("%w: %q", controller.ErrInvalidRole, args[1])
	}

	u, err := deps.Users.GetByEmail(ctx, args[0])
	if err != nil {
		return err
	}

	if u, err = deps.Users.UpdateRole(ctx, u.ID, role); err != nil {
		return err
	}

	record(cmd, u, models.ActivityUserUpdated, fmt.Sprintf("Changed role of %s to %s from console", u.Email, u.Role))
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role) //nolint:errcheck

	return nil
}

func userDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	u, err := deps.Users.GetByEmail(ctx, args[0])
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Delete %s", u.Email), force)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}

	if err = deps.Users.Delete(ctx, u.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d %s\n", u.ID, u.Email) //nolint:errcheck
	printOutcome(cmd.OutOrStdout(), deps.Provisioner.DeleteAccount(ctx, u.Email))

	return nil
}

func userResetPassword(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	u, err := deps.Users.GetByEmail(ctx, args[0])
	if err != nil {
		return err
	}

	if u.DirectoryManaged() && !deps.Provisioner.Enabled() {
		return fmt.Errorf("%w: directory provisioning is disabled", auth.ErrDirectoryManaged)
	}

	secret, err := newPassword(cmd)
	if err != nil {
		return err
	}

	if u.HasPassword() {
		if err = deps.Authenticator.Local().SetPassword(ctx, u.ID, secret); err != nil {
			return err
		}
	}

	record(cmd, u, models.ActivityPasswordReset, fmt.Sprintf("Reset password of %s from console", u.Email))
	fmt.Fprintf(cmd.OutOrStdout(), "password of %s reset\n", u.Email) //nolint:errcheck
	printOutcome(cmd.OutOrStdout(), deps.Provisioner.ResetPassword(ctx, u.Email, secret))

	return nil
}
