package commands

import (
	"github.com/spf13/cobra"

	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream a local camera to one TCP client",
	Long: `Run a server session: bind the stream port, wait for a single
client and send it the camera's frames as length-prefixed JPEG
messages. When the client drops, the session returns to idle.`,
	Example: `  # Serve camera 0 on the default port (8485)
  camstream serve

  # Serve on a custom port at reduced quality
  camstream serve --port 9485 --quality 60

  # Serve a synthetic test pattern with a local preview
  camstream serve --synthetic --http-port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "TCP stream port")
	serveCmd.Flags().Int("camera", -1, "camera device index")
	serveCmd.Flags().Int("width", 0, "target frame width")
	serveCmd.Flags().Int("height", 0, "target frame height")
	serveCmd.Flags().Int("fps", 0, "advisory send rate")
	serveCmd.Flags().Int("quality", 0, "JPEG quality 1..100")
	serveCmd.Flags().Bool("synthetic", false, "use the synthetic test-pattern source")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Mode = "server"
	applySourceFlags(cmd, &cfg)

	sess, err := session.New(cfg)
	if err != nil {
		return err
	}

	if err := sess.StartStreaming(); err != nil {
		sess.Close()
		return err
	}

	logger.WithComponent("main").Info().
		Int("port", cfg.Port).
		Msg("Waiting for a client")
	return runSession(sess, cfg)
}
