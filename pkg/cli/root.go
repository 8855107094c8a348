package cli

import (
	"github.com/spf13/cobra"
)

func version() string {
	return "v0.1.0"
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top-level `pgsession` command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pgsession",
		Short:         "pgsession — single-connection PostgreSQL session checks and log upload",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewPingCmd())
	root.AddCommand(NewSmokeCmd())
	root.AddCommand(NewUploadCmd())
	root.AddCommand(NewVersionCmd())
	return root
}
