package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/annotations"
	"github.com/MarcoPoloResearchLab/margin/internal/config"
	"github.com/MarcoPoloResearchLab/margin/internal/document"
	"github.com/MarcoPoloResearchLab/margin/internal/events"
	"github.com/MarcoPoloResearchLab/margin/internal/logging"
	"github.com/MarcoPoloResearchLab/margin/internal/notifications"
	"github.com/MarcoPoloResearchLab/margin/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "margin-api",
		Short: "Margin annotation backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newAnnotationsCommand(), newNotificationsCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.Flags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.Flags().String("document", defaults.GetString("document.path"), "Path to the reading document")
	cmd.Flags().String("seed", "", "Path to a JSON seed file for demo annotations and notifications")
	cmd.Flags().String("user", defaults.GetString("user.name"), "Display name recorded for the current user")
	cmd.Flags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("simulate-classmate", false, "Reply to the first saved annotation with a demo classmate reply")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "document.path", "document")
	bindFlag(cmd, "seed.path", "seed")
	bindFlag(cmd, "user.name", "user")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "demo.simulate_classmate", "simulate-classmate")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	raw, err := os.ReadFile(appConfig.DocumentPath)
	if err != nil {
		return err
	}
	body := document.Parse(string(raw))

	dispatcher := events.NewDispatcher()
	feed, err := notifications.NewFeed(notifications.FeedConfig{
		Clock:      time.Now,
		IDProvider: annotations.NewUUIDProvider(),
		Logger:     logger,
		Events:     dispatcher,
	})
	if err != nil {
		return err
	}

	store, err := annotations.NewStore(annotations.StoreConfig{
		Clock:       time.Now,
		IDProvider:  annotations.NewUUIDProvider(),
		Logger:      logger,
		Marker:      document.NewHighlighter(body, logger),
		Events:      dispatcher,
		Notifier:    notifications.NewStoreNotifier(feed, logger),
		CurrentUser: appConfig.CurrentUser,
	})
	if err != nil {
		return err
	}

	if appConfig.SeedPath != "" {
		if err := applySeed(appConfig.SeedPath, body, store, feed, logger); err != nil {
			return err
		}
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("demo.simulate_classmate") {
		go simulateClassmateReply(signalCtx, store, dispatcher, logger)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Store:  store,
		Body:   body,
		Feed:   feed,
		Events: dispatcher,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("document", appConfig.DocumentPath),
			zap.Int("blocks", body.BlockCount()))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// simulateClassmateReply replies once to the first annotation saved after
// startup, so a fresh install can demo the reply notification path.
func simulateClassmateReply(ctx context.Context, store *annotations.Store, dispatcher *events.Dispatcher, logger *zap.Logger) {
	stream, cleanup := dispatcher.Subscribe(ctx)
	defer cleanup()

	var once sync.Once
	for {
		select {
		case <-ctx.Done():
			return
		case message, open := <-stream:
			if !open {
				return
			}
			if message.EventType != events.EventAnnotationChanged {
				continue
			}
			once.Do(func() {
				_, err := store.AppendReply(message.AnnotationID, "Classmate", "Totally agree, flagging this for the study group.")
				if err != nil {
					logger.Warn("classmate demo reply failed", zap.Error(err))
				}
			})
			return
		}
	}
}
