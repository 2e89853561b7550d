package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/sheetapi"
)

func newTicketsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "View and update help tickets",
	}

	cmd.AddCommand(
		newTicketsListCommand(),
		newTicketsUpdateCommand(),
	)

	return cmd
}

func newTicketsListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List help tickets for the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			tickets, err := app.Daemon.Tickets(ctx)
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(tickets)
			default:
				if len(tickets) == 0 {
					color.New(color.FgYellow).Println("No tickets.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATUS\tUSER\tISSUE")
				for _, t := range tickets {
					issue := t.Issue
					if len(issue) > 60 {
						issue = issue[:57] + "..."
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TicketID, t.Status, t.UserEmail, issue)
				}
				return w.Flush()
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json)")
	return cmd
}

func newTicketsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <ticket-id> <status>",
		Short: "Change a ticket's status",
		Long: fmt.Sprintf("Valid statuses: %q, %q, %q, %q.",
			sheetapi.TicketPending, sheetapi.TicketResolved,
			sheetapi.TicketCancelledUser, sheetapi.TicketCancelledDev),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			tickets, err := app.Daemon.UpdateTicket(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("✅ Ticket %s updated, %d tickets total.\n", args[0], len(tickets))
			return nil
		},
	}

	return cmd
}
