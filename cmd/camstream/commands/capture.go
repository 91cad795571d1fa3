package commands

import (
	"github.com/spf13/cobra"

	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/session"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a local camera into the frame store",
	Long: `Run a local (usb) session: frames are pulled from the camera,
resized to the target resolution and kept in the frame store. Pair it
with --http-port to watch the live preview in a browser.`,
	Example: `  # Capture camera 0 at the configured resolution
  camstream capture

  # Capture camera 1 at 320x240, preview on port 8080
  camstream capture --camera 1 --width 320 --height 240 --http-port 8080

  # No camera? Generate a test pattern
  camstream capture --synthetic --http-port 8080`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().Int("camera", -1, "camera device index")
	captureCmd.Flags().Int("width", 0, "target frame width")
	captureCmd.Flags().Int("height", 0, "target frame height")
	captureCmd.Flags().Int("fps", 0, "advisory capture rate")
	captureCmd.Flags().Bool("synthetic", false, "use the synthetic test-pattern source")

	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Mode = "usb"
	applySourceFlags(cmd, &cfg)

	sess, err := session.New(cfg)
	if err != nil {
		return err
	}

	logger.WithComponent("main").Info().
		Str("backend", sess.Info().Backend).
		Msg("Capturing")
	return runSession(sess, cfg)
}
