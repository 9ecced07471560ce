package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/impact-atlas/pkg/server"
	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/services/estimate"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = "8080"
)

var (
	cfgPath  string
	withSink bool
	watch    bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Impact Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "impact.yaml", "Path to the settings file")
	rootCmd.Flags().BoolVar(&withSink, "sink", false, "Open the configured warehouse so requests can persist results")
	rootCmd.Flags().BoolVar(&watch, "watch", true, "Reload settings when the file changes")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env file")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(cmd.Context()))
	defer cancel()

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	rt, err := estimate.Bootstrap(ctx, settings, withSink)
	if err != nil {
		return fmt.Errorf("failed to initialize estimator: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close runtime")
		}
	}()

	logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	for _, m := range settings.Models {
		logger.Info().Msgf("Node: `%s`, Model: `%s`", m.Node, m.Model)
	}

	if watch {
		go func() {
			err := config.WatchSettings(ctx, cfgPath, rt.Controller.Reload)
			if err != nil {
				logger.Error().Err(err).Msg("settings watcher stopped")
			}
		}()
	}

	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = defaultHost
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = defaultPort
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  2 * time.Minute,
		Dependencies: server.Dependencies{
			Estimator: rt.Controller,
		},
	})

	return api.Start()
}
