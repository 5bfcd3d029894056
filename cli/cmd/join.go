package cmd

import (
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join <stream-id>",
	Short: "Join a started stream and chat in it.",
	Long: `Joins a stream as a viewer. The join is refused unless the host has
started the stream. Lines typed on stdin are sent as chat messages. Commands:

  /leave  /members  /call <connection-id>  /quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		s, err := connect(cmd.Context(), args[0], name, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.client.JoinStream(args[0], s.name); err != nil {
			return err
		}
		return s.repl(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().String("name", "viewer", "display name")
}
