package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/warp-run/scdash/internal/assistant"
)

func newAssistCommand() *cobra.Command {
	var listen bool

	cmd := &cobra.Command{
		Use:   "assist [message]",
		Short: "Talk to the dashboard assistant",
		Long: `Send a message to the assistant, or start an interactive session when
no message is given. Replies may carry actions (navigation, filters,
mark-done) that the daemon executes against the dashboard state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()

			if listen {
				return runListen(cmd.Context(), app)
			}
			if len(args) > 0 {
				return sendOnce(cmd.Context(), app, strings.Join(args, " "))
			}
			return runREPL(cmd.Context(), app)
		},
	}

	cmd.Flags().BoolVar(&listen, "listen", false, "use voice input for one message")

	cmd.AddCommand(
		newAssistResetCommand(),
		newAssistOutputCommand(),
	)

	return cmd
}

func sendOnce(parent context.Context, app *App, text string) error {
	ctx, cancel := context.WithTimeout(parent, 90*time.Second)
	defer cancel()

	snap, err := app.Daemon.SendMessage(ctx, text)
	if err != nil {
		return err
	}
	printNewTurns(snap, text)
	return nil
}

func runListen(parent context.Context, app *App) error {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	color.New(color.FgCyan).Fprintln(os.Stderr, "Listening... speak now.")
	snap, err := app.Daemon.Listen(ctx)
	if err != nil {
		return err
	}
	printNewTurns(snap, "")
	return nil
}

func runREPL(parent context.Context, app *App) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		color.New(color.FgCyan, color.Bold).Println("scdash assistant. Type a message, or 'exit' to quit.")
	}
	reader := bufio.NewReader(os.Stdin)

	for {
		if interactive {
			fmt.Fprint(os.Stderr, "> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := sendOnce(parent, app, line); err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// printNewTurns shows the turns after the user's own message; the daemon
// returns the full conversation, so walk back to the submitted text.
func printNewTurns(snap assistant.Snapshot, sent string) {
	start := 0
	if sent != "" {
		for i := len(snap.Conversation) - 1; i >= 0; i-- {
			if snap.Conversation[i].Role == assistant.RoleUser && snap.Conversation[i].Text == sent {
				start = i + 1
				break
			}
		}
	}
	for _, turn := range snap.Conversation[start:] {
		switch turn.Role {
		case assistant.RoleAssistant:
			color.New(color.FgGreen).Printf("assistant: %s\n", turn.Text)
		case assistant.RoleSystem:
			color.New(color.FgRed).Printf("system: %s\n", turn.Text)
		case assistant.RoleUser:
			color.New(color.FgHiBlack).Printf("you: %s\n", turn.Text)
		}
	}
}

func newAssistResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the assistant conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()

			confirmed := yes
			if !confirmed {
				var err error
				confirmed, err = promptYesNo("Clear the whole conversation?")
				if err != nil {
					return err
				}
			}
			if !confirmed {
				color.New(color.FgYellow).Println("Aborted.")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Daemon.ResetConversation(ctx, true); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Conversation cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAssistOutputCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "output <text_and_voice|text_only>",
		Short: "Switch assistant output mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Daemon.SetAssistantOutput(ctx, args[0]); err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Output mode set to %s.\n", args[0])
			return nil
		},
	}
}
