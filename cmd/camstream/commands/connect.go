package commands

import (
	"github.com/spf13/cobra"

	"github.com/visionlink/camstream/internal/logger"
	"github.com/visionlink/camstream/internal/session"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Receive a remote camera's stream",
	Long: `Run a client session: connect to a camstream server, decode its
frames into the local store and stay connected until the server goes
away or the process is interrupted. There is no automatic reconnect.`,
	Example: `  # Connect to a server on the default port
  camstream connect --server 192.168.1.20

  # Custom port, with a local preview of the received frames
  camstream connect --server 192.168.1.20 --port 9485 --http-port 8080`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().String("server", "", "server address (required)")
	connectCmd.Flags().Int("port", 0, "TCP stream port")

	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Mode = "client"
	applySourceFlags(cmd, &cfg)
	if cmd.Flags().Changed("server") {
		cfg.ServerIP, _ = cmd.Flags().GetString("server")
	}

	sess, err := session.New(cfg)
	if err != nil {
		return err
	}

	if err := sess.Connect(); err != nil {
		sess.Close()
		return err
	}

	logger.WithComponent("main").Info().
		Str("server", cfg.ServerIP).
		Int("port", cfg.Port).
		Msg("Receiving")
	return runSession(sess, cfg)
}
