package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp-run/scdash/internal/ai"
	"github.com/warp-run/scdash/internal/core"
	"github.com/warp-run/scdash/internal/daemon"
	"github.com/warp-run/scdash/internal/session"
	"github.com/warp-run/scdash/internal/sheetapi"
	"github.com/warp-run/scdash/internal/speech"
)

func newServeCommand() *cobra.Command {
	var noLoad bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scdash daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := MustApp()
			cfg := app.Config

			setupLogging(cfg.LogLevel)

			// Sentry first so startup failures are captured too.
			if cfg.SentryDSN != "" {
				host, _ := os.Hostname()
				opts := sentry.ClientOptions{
					Dsn:     cfg.SentryDSN,
					Release: version,
				}
				if host != "" {
					opts.ServerName = host
				}
				if err := sentry.Init(opts); err != nil {
					log.WithError(err).Warn("sentry initialization failed")
				} else {
					sentry.ConfigureScope(func(scope *sentry.Scope) {
						scope.SetTag("service", "scdash")
					})
					defer sentry.Flush(2 * time.Second)
				}
			}

			sheet := sheetapi.NewClient(cfg.WebAppURL,
				sheetapi.WithUserAgent("scdash/"+version),
			)
			aiClient := ai.NewClient(cfg.AssistURL,
				ai.WithUserAgent("scdash/"+version),
			)

			var voice *speech.Synthesizer
			if engine := speech.NewExecEngine(cfg.SpeakCommand, nil); engine != nil {
				voice = speech.NewSynthesizer(engine)
			}
			var recognizer speech.Recognizer
			if rec := speech.NewExecRecognizer(cfg.ListenCommand, "en-US"); rec != nil {
				recognizer = rec
			}

			application := core.New(
				sheet,
				session.NewStore(cfg.SessionFile()),
				session.NewPrefsStore(cfg.PrefsFile()),
				aiClient,
				voice,
				recognizer,
				core.WithDeveloperEmail(cfg.DeveloperEmail),
				core.WithRefreshInterval(cfg.RefreshInterval),
				core.WithScreensaverTimeout(cfg.ScreensaverTimeout),
			)
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !noLoad {
				go func() {
					if err := application.LoadInitial(ctx); err != nil {
						log.WithError(err).Warn("initial load failed")
					}
				}()
			}

			daemon.Version = version
			server := daemon.NewServer(application, cfg.Socket())
			log.WithField("socket", cfg.Socket()).Info("starting scdash daemon")
			return server.Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&noLoad, "no-load", false, "do not start the initial data load automatically")
	return cmd
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
