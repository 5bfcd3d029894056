package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Create and start a stream, then chat in it.",
	Long: `Creates a stream on the server and starts it so viewers can join.
Lines typed on stdin are sent as chat messages. Commands:

  /pause  /start  /stop  /members  /call <connection-id>  /quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		streamID, _ := cmd.Flags().GetString("stream")
		if streamID == "" {
			return fmt.Errorf("--stream is required")
		}
		name, _ := cmd.Flags().GetString("name")

		s, err := connect(cmd.Context(), streamID, name, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.client.CreateStream(streamID, s.name); err != nil {
			return err
		}
		if err := s.client.StartStream(streamID); err != nil {
			return err
		}
		return s.repl(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().String("stream", "", "stream id")
	hostCmd.Flags().String("name", "host", "display name")
}
