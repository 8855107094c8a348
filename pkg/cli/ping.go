package cli

import (
	"github.com/spf13/cobra"
)

// NewPingCmd builds the `ping` command.
func NewPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect to the configured database and verify it responds",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, log, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Ping(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("database is reachable")
			return nil
		},
	}
}
