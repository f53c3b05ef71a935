package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faceofmind/admin-sync/internal/api"
	"github.com/faceofmind/admin-sync/internal/auth"
)

// LoginFailedMessage is shown when the backend gives no usable reason.
const LoginFailedMessage = "Login failed. Please try again."

func newLoginCommand(g *globals) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Long: `Sign in with an admin account. The password is taken from --password,
then the ADMINSYNC_PASSWORD environment variable, then one line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if email == "" {
				return errors.New("--email is required")
			}

			pw := lookupPassword(password)
			if pw == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				pw = strings.TrimRight(line, "\r\n")
			}

			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Login(ctx, email, pw); err != nil {
				a.logger.Debug("login failed", "error", err)
				a.printer.Error("%s", api.UserMessage(err, LoginFailedMessage))
				return errReported
			}

			a.printer.Success("logged in as %s", email)
			if exp, ok := a.session.Expiry(); ok {
				a.printer.Info("%s", a.printer.Dim("session expires "+exp.Local().Format("2006-01-02 15:04")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear cached analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			a.printer.Success("logged out")
			return nil
		},
	}
}

func newThemeCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(auth.ThemeLight), string(auth.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				t, err := a.session.Theme(ctx)
				if err != nil {
					return err
				}
				a.printer.Info("%s", t)
				return nil
			}

			t, err := auth.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if err := a.session.SetTheme(ctx, t); err != nil {
				return fmt.Errorf("saving theme: %w", err)
			}
			a.printer.Success("theme set to %s", t)
			return nil
		},
	}
}
