package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinema-booking-cli/service"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = promptText("Username", 0, nil); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptText("Password", '*', nil); err != nil {
					return err
				}
			}
			user, err := a.auth.Login(cmd.Context(), a.client, strings.TrimSpace(username), password)
			if err != nil {
				if service.IsUnauthorized(err) {
					return errors.New("invalid username or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user.Username)
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return loginCmd
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notEmpty := func(input string) error {
				if strings.TrimSpace(input) == "" {
					return errors.New("required")
				}
				return nil
			}
			username, err := promptText("Username", 0, notEmpty)
			if err != nil {
				return err
			}
			email, err := promptText("Email", 0, notEmpty)
			if err != nil {
				return err
			}
			password, err := promptText("Password", '*', notEmpty)
			if err != nil {
				return err
			}
			confirm, err := promptText("Confirm password", '*', nil)
			if err != nil {
				return err
			}
			if err := a.auth.Register(cmd.Context(), a.client, strings.TrimSpace(username), strings.TrimSpace(email), password, confirm); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), `Account created. Run "cinema login" to sign in.`)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			user, err := a.auth.RequireUser()
			if err != nil {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendRows([]table.Row{
				{"ID", user.Id},
				{"Username", user.Username},
				{"Email", user.Email},
				{"Role", user.Role},
			})
			if expires, ok := a.auth.ExpiresAt(); ok {
				t.AppendRow(table.Row{"Expires", expires.Local().Format(time.DateTime)})
			}
			t.Render()
			return nil
		},
	}
}

func promptText(label string, mask rune, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     mask,
		Validate: validate,
	}
	return prompt.Run()
}
