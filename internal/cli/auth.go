package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/spf13/cobra"
)

var (
	authEmail string
	authName  string

	profileName     string
	profileBio      string
	profilePassword bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Long: `Create an account on the server and store the session token.

Examples:
  recipebox register --email ada@example.com --name "Ada"
  recipebox register`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Long: `Log in with email and password. The session token is stored in
$RECIPEBOX_TOKEN_FILE (default ~/.config/recipebox/token).

Examples:
  recipebox login --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change display name, bio or password",
	Long: `Change profile fields. Only the flags you pass are changed.
Changing the password asks for the current one.

Examples:
  recipebox profile update --name "Ada L."
  recipebox profile update --bio "Bakes on Sundays"
  recipebox profile update --password`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset a forgotten password",
}

var passwordResetRequestCmd = &cobra.Command{
	Use:   "reset-request <email>",
	Short: "Request a password reset token",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswordResetRequest,
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset <token>",
	Short: "Set a new password with a reset token",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswordReset,
}

func init() {
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&authName, "name", "n", "", "display name")
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")

	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "new display name")
	profileUpdateCmd.Flags().StringVar(&profileBio, "bio", "", "new bio")
	profileUpdateCmd.Flags().BoolVar(&profilePassword, "password", false, "change the password")
	profileCmd.AddCommand(profileUpdateCmd)

	passwordCmd.AddCommand(passwordResetRequestCmd)
	passwordCmd.AddCommand(passwordResetCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	p := newPrompter(cmd)

	email, err := valueOrPrompt(p, authEmail, "Email: ")
	if err != nil {
		return err
	}
	name, err := valueOrPrompt(p, authName, "Display name: ")
	if err != nil {
		return err
	}
	password, err := newPassword(p)
	if err != nil {
		return err
	}

	auth, err := gqlClient.Register(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := writeToken(cfg.TokenFile, auth.Token); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s <%s>\n", auth.User.DisplayName, auth.User.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	p := newPrompter(cmd)

	email, err := valueOrPrompt(p, authEmail, "Email: ")
	if err != nil {
		return err
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return err
	}

	auth, err := gqlClient.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := writeToken(cfg.TokenFile, auth.Token); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", auth.User.DisplayName, auth.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := removeToken(cfg.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if gqlClient.Token() == "" {
		return errNotLoggedIn
	}
	user, err := gqlClient.Me(ctx)
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	if user == nil {
		return fmt.Errorf("session expired, log in again")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s>\n", user.DisplayName, user.Email)
	fmt.Fprintf(out, "ID: %s\n", user.ID)
	if user.Bio != nil && *user.Bio != "" {
		fmt.Fprintf(out, "Bio: %s\n", *user.Bio)
	}
	if verbose {
		fmt.Fprintf(out, "Member since: %s\n", user.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if gqlClient.Token() == "" {
		return errNotLoggedIn
	}

	var input client.ProfileInput
	if cmd.Flags().Changed("name") {
		input.DisplayName = &profileName
	}
	if cmd.Flags().Changed("bio") {
		input.Bio = &profileBio
	}
	if profilePassword {
		p := newPrompter(cmd)
		current, err := p.Password("Current password: ")
		if err != nil {
			return err
		}
		next, err := newPassword(p)
		if err != nil {
			return err
		}
		input.CurrentPassword = &current
		input.Password = &next
	}
	if input == (client.ProfileInput{}) {
		return fmt.Errorf("nothing to update: pass --name, --bio or --password")
	}

	user, err := gqlClient.UpdateProfile(ctx, input)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated profile for %s <%s>\n", user.DisplayName, user.Email)
	return nil
}

func runPasswordResetRequest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := gqlClient.RequestPasswordReset(ctx, args[0]); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset token has been sent.")
	return nil
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	password, err := newPassword(newPrompter(cmd))
	if err != nil {
		return err
	}
	if err := gqlClient.ResetPassword(ctx, args[0], password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Password changed. Log in with the new password.")
	return nil
}

var errNotLoggedIn = errors.New("not logged in (run 'recipebox login')")

func valueOrPrompt(p *prompter, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := p.Line(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", strings.TrimSuffix(label, ": "))
	}
	return v, nil
}

// newPassword asks for a password twice.
func newPassword(p *prompter) (string, error) {
	password, err := p.Password("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := p.Password("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
