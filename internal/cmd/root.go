// Package cmd implements the scdash command line: a thin client for the
// local daemon plus the `serve` command that runs the daemon itself.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/config"
	"github.com/warp-run/scdash/internal/daemon"
)

var (
	rootCmd = &cobra.Command{
		Use:           "scdash",
		Short:         "Sales coordination dashboard CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initApp(cmd)
		},
	}

	cfgFile        string
	activeProfile  string
	overrideSocket string
	overrideWebApp string
	overrideAssist string
	debugEnabled   bool

	appOnce sync.Once
	app     *App
)

var version = "dev"

// App carries global CLI state shared across commands.
type App struct {
	Config *config.Config
	Daemon *daemon.Client
	Debug  bool
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// MustApp returns the initialized application context.
func MustApp() *App {
	if app == nil {
		panic("cli not initialized")
	}
	return app
}

func init() {
	cobra.OnInitialize(func() {
		color.NoColor = false
	})

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $SCDASH_HOME/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&activeProfile, "profile", "default", "configuration profile")
	rootCmd.PersistentFlags().StringVar(&overrideSocket, "socket", "", "override daemon socket path")
	rootCmd.PersistentFlags().StringVar(&overrideWebApp, "webapp-url", "", "override the sheet web app URL")
	rootCmd.PersistentFlags().StringVar(&overrideAssist, "assist-url", "", "override the assistant backend URL")
	rootCmd.PersistentFlags().BoolVar(&debugEnabled, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newStatusCommand(),
		newRefreshCommand(),
		newMaintenanceCommand(),
		newTourCommand(),
		newAssistCommand(),
		newTicketsCommand(),
	)
}

func initApp(cmd *cobra.Command) error {
	var initErr error
	appOnce.Do(func() {
		cfgPath := cfgFile
		if cfgPath == "" {
			home, err := config.DefaultHomeDir()
			if err != nil {
				initErr = fmt.Errorf("determine config directory: %w", err)
				return
			}
			cfgPath = filepath.Join(home, "config.yaml")
		}

		cfg, err := config.Load(cfgPath, activeProfile)
		if err != nil {
			initErr = err
			return
		}

		if overrideSocket != "" {
			cfg.SocketPath = overrideSocket
		}
		if overrideWebApp != "" {
			cfg.WebAppURL = strings.TrimRight(overrideWebApp, "/")
		}
		if overrideAssist != "" {
			cfg.AssistURL = strings.TrimRight(overrideAssist, "/")
		}
		if cfg.HomeDir == "" {
			cfg.HomeDir, _ = config.DefaultHomeDir()
		}

		if err := os.MkdirAll(cfg.HomeDir, 0o700); err != nil {
			initErr = fmt.Errorf("ensure scdash home: %w", err)
			return
		}

		app = &App{
			Config: cfg,
			Daemon: daemon.NewClient(cfg.Socket()),
			Debug:  debugEnabled,
		}
	})

	if initErr != nil {
		return initErr
	}
	if app == nil {
		return fmt.Errorf("failed to initialize cli")
	}
	return nil
}

func printDebug(format string, args ...interface{}) {
	if app != nil && app.Debug {
		msg := fmt.Sprintf(format, args...)
		color.New(color.FgHiBlack).Fprintln(os.Stderr, "[debug]", msg)
	}
}
