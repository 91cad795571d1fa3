package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visionlink/camstream/internal/api"
	"github.com/visionlink/camstream/internal/config"
	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/session"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "camstream",
		Short: "camstream - camera frame streaming over TCP",
		Long: `camstream captures frames from a local camera and either serves
them to a single remote client over a length-prefixed TCP stream, or
receives and decodes such a stream from a remote camera.

Modes:
  capture   read a local camera into the frame store
  serve     stream a local camera to one TCP client
  connect   receive a remote camera's stream

An optional HTTP monitor exposes session stats and a live MJPEG
preview of whichever frames the session currently holds.`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/camstream/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "human-readable console log output")
	rootCmd.PersistentFlags().Int("http-port", 0, "monitor HTTP port (0 disables the monitor)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("pretty", rootCmd.PersistentFlags().Lookup("pretty"))
	viper.BindPFlag("http_port", rootCmd.PersistentFlags().Lookup("http-port"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the persisted config with any flags set on this
// invocation and initializes logging.
func loadConfig() (config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	cfg := mgr.Get()

	if viper.IsSet("log_level") && viper.GetString("log_level") != "" {
		cfg.LogLevel = viper.GetString("log_level")
	}
	if viper.IsSet("http_port") && viper.GetInt("http_port") > 0 {
		cfg.HTTPPort = viper.GetInt("http_port")
	}

	logger.Init(cfg.LogLevel, viper.GetBool("pretty"))
	return cfg, nil
}

// runSession starts the optional monitor, then blocks until SIGINT or
// SIGTERM and tears the session down.
func runSession(sess *session.Session, cfg config.Config) error {
	log := logger.WithComponent("main")

	var monitor *api.Server
	if cfg.HTTPPort > 0 {
		monitor = api.NewServer(sess, cfg)
		go func() {
			if err := monitor.Start(cfg.HTTPPort); err != nil {
				log.Error().Err(err).Msg("Monitor server failed")
			}
		}()
		log.Info().Msgf("Monitor: http://localhost:%d", cfg.HTTPPort)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	if monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		monitor.Stop(ctx)
	}
	return sess.Close()
}
