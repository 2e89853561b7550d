package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/sheetapi"
)

func newMaintenanceCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "maintenance <on|off>",
		Short: "Toggle maintenance mode (developer only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()

			status := strings.ToUpper(strings.TrimSpace(args[0]))
			if status != sheetapi.MaintenanceOn && status != sheetapi.MaintenanceOff {
				return fmt.Errorf("status must be on or off, got %q", args[0])
			}

			confirmed := yes
			if !confirmed {
				var err error
				confirmed, err = promptYesNo(fmt.Sprintf("Turn maintenance mode %s for every user?", status))
				if err != nil {
					return err
				}
			}
			if !confirmed {
				color.New(color.FgYellow).Println("Aborted, no change made.")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := app.Daemon.SetMaintenance(ctx, status, true); err != nil {
				return err
			}

			if status == sheetapi.MaintenanceOn {
				color.New(color.FgYellow, color.Bold).Println("🚧 Maintenance mode is ON")
			} else {
				color.New(color.FgGreen, color.Bold).Println("✅ Maintenance mode is OFF")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
