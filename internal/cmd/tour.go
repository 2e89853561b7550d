package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/tour"
)

func newTourCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Control the guided walkthrough",
	}

	cmd.AddCommand(
		newTourStartCommand(),
		newTourStepCommand("next", "Advance to the next step"),
		newTourStepCommand("previous", "Step back to the previous step"),
		newTourSkipCommand(),
		newTourEndCommand(),
	)

	return cmd
}

func newTourStartCommand() *cobra.Command {
	var page string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Begin a walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			state, err := app.Daemon.TourStart(ctx, page)
			if err != nil {
				return err
			}
			printTourStep(state)
			return nil
		},
	}

	cmd.Flags().StringVar(&page, "page", string(tour.PageDashboard), "page to tour (login|dashboard)")
	return cmd
}

func newTourStepCommand(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			var (
				state tour.State
				err   error
			)
			if direction == "next" {
				state, err = app.Daemon.TourNext(ctx)
			} else {
				state, err = app.Daemon.TourPrevious(ctx)
			}
			if err != nil {
				return err
			}
			if !state.Run {
				color.New(color.FgGreen).Println("Tour finished.")
				return nil
			}
			printTourStep(state)
			return nil
		},
	}
}

func newTourSkipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Abandon the walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Daemon.TourSkip(ctx); err != nil {
				return err
			}
			color.New(color.FgYellow).Println("Tour skipped.")
			return nil
		},
	}
}

func newTourEndCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Finish the walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Daemon.TourEnd(ctx); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Tour ended.")
			return nil
		},
	}
}

func printTourStep(state tour.State) {
	if !state.Run || state.Index >= len(state.Steps) {
		return
	}
	step := state.Steps[state.Index]
	color.New(color.FgCyan, color.Bold).Printf("Step %d of %d: %s\n", state.Index+1, len(state.Steps), step.Title)
	fmt.Printf("  %s\n", step.Content)
	if step.Target != "" {
		color.New(color.FgHiBlack).Printf("  Target: %s\n", step.Target)
	}
}
