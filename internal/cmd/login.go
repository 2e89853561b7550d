package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var (
		email  string
		method string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in against the permissions list",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()

			if email == "" {
				var err error
				email, err = promptInput("Email")
				if err != nil {
					return err
				}
			}
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("email is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			printDebug("attempting login for %s", email)

			sess, err := app.Daemon.Login(ctx, email, method)
			if err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Printf("✅ Logged in as %s\n", sess.Name)
			fmt.Printf("  Email: %s\n", sess.Email)
			fmt.Printf("  Role: %s\n", sess.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&method, "method", "CLI", "login method recorded in the activity log")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := app.Daemon.Logout(ctx); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Logged out.")
			return nil
		},
	}
}

func promptInput(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	text, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// promptYesNo asks for explicit confirmation; anything but y/yes is a no.
func promptYesNo(question string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	text, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(text))
	return answer == "y" || answer == "yes", nil
}
