package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewUploadCmd builds the `upload` command.
func NewUploadCmd() *cobra.Command {
	var (
		procedure string
		source    string
		at        string
		drive     string
		detail    string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Invoke the log upload routine with a validated entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("failed to parse --at: %w", err)
				}
				ts = parsed
			}

			sess, log, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			inputs := []any{source, ts, drive, detail}
			if err := sess.UploadLog(cmd.Context(), procedure, inputs); err != nil {
				return err
			}
			log.Info().Str("drive", drive).Str("source", source).Msg("log entry uploaded")
			return nil
		},
	}

	cmd.Flags().StringVar(&procedure, "procedure", "upload_log", "Upload routine name")
	cmd.Flags().StringVar(&source, "source", "", "Log source, free text")
	cmd.Flags().StringVar(&at, "at", "", "Entry timestamp in RFC 3339 form, defaults to now")
	cmd.Flags().StringVar(&drive, "drive", "", "Drive label, drive_1 through drive_6")
	cmd.Flags().StringVar(&detail, "detail", "", "Log detail, free text")
	return cmd
}
