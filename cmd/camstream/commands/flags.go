package commands

import (
	"github.com/spf13/cobra"

	"github.com/visionlink/camstream/internal/config"
)

// applySourceFlags folds capture-source flags into cfg, touching only
// the fields the user set on this invocation.
func applySourceFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.CameraIndex, _ = flags.GetInt("camera")
	}
	if flags.Changed("width") {
		cfg.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		cfg.Height, _ = flags.GetInt("height")
	}
	if flags.Changed("fps") {
		cfg.FPS, _ = flags.GetInt("fps")
	}
	if flags.Changed("quality") {
		cfg.Quality, _ = flags.GetInt("quality")
	}
	if flags.Changed("synthetic") {
		cfg.Synthetic, _ = flags.GetBool("synthetic")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
}
