package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/sheetapi"
)

func newStatusCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and data state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			state, err := app.Daemon.State(ctx)
			if err != nil {
				return fmt.Errorf("daemon unreachable at %s: %w", app.Daemon.SocketPath(), err)
			}

			switch strings.ToLower(format) {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(state)
			default:
				color.New(color.FgCyan, color.Bold).Printf("Screen: %s\n", state.Screen)
				if !state.Loaded {
					fmt.Printf("  Loading: %d%%\n", state.Progress)
				}
				if state.Error != "" {
					color.New(color.FgRed).Printf("  Error: %s\n", state.Error)
				}
				if state.LastUpdated != nil {
					fmt.Printf("  Last updated: %s\n", state.LastUpdated.Format(time.RFC3339))
				}
				if state.Session != nil {
					fmt.Printf("  User: %s <%s> (%s)\n", state.Session.Name, state.Session.Email, state.Session.Role)
				}

				if state.Maintenance.Status == sheetapi.MaintenanceOn {
					color.New(color.FgYellow, color.Bold).Printf("  Maintenance: ON (%s elapsed)\n",
						(time.Duration(state.Maintenance.ElapsedSeconds) * time.Second).String())
				} else {
					fmt.Printf("  Maintenance: OFF\n")
				}
				if state.Screensaver {
					fmt.Printf("  Screensaver: active\n")
				}
				if state.Dashboard != nil {
					fmt.Printf("  View: %s (%d leads visible)\n", state.Dashboard.View, state.Dashboard.VisibleLeads)
				}
				if state.Tour.Run {
					fmt.Printf("  Tour: step %d of %d\n", state.Tour.Index+1, len(state.Tour.Steps))
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json)")
	return cmd
}

func newWhoamiCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Display the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			state, err := app.Daemon.State(ctx)
			if err != nil {
				return err
			}
			if state.Session == nil {
				color.New(color.FgYellow).Println("Not signed in. Run `scdash login` to sign in.")
				return nil
			}

			switch strings.ToLower(format) {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(state.Session)
			default:
				color.New(color.FgCyan, color.Bold).Printf("Signed in as: %s\n", state.Session.Name)
				fmt.Printf("  Email: %s\n", state.Session.Email)
				fmt.Printf("  Role: %s\n", state.Session.Role)
				if state.Session.Method != "" {
					fmt.Printf("  Method: %s\n", state.Session.Method)
				}
				fmt.Printf("  Since: %s\n", state.Session.SavedAt.Format(time.RFC3339))
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json)")
	return cmd
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch dashboard data now",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			state, err := app.Daemon.Refresh(ctx)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Println("✅ Refreshed")
			if state.LastUpdated != nil {
				fmt.Printf("  Last updated: %s\n", state.LastUpdated.Format(time.RFC3339))
			}
			return nil
		},
	}
}
