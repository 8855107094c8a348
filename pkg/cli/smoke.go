package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewSmokeCmd builds the `smoke` command: a create, insert, duplicate-check
// and drop round trip over a scratch table.
func NewSmokeCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a create/insert/duplicate-check/drop round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, log, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			columns := map[string]string{
				"id":        "INT",
				"date_time": "DATE",
			}
			if err := sess.CreateTable(ctx, table, columns); err != nil {
				return err
			}

			row := map[string]any{"id": 1, "date_time": time.Now()}
			if err := sess.InsertRow(ctx, table, row); err != nil {
				return err
			}

			dup, err := sess.HasDuplicates(ctx, table, "id", 1)
			if err != nil {
				return err
			}
			log.Info().Bool("duplicates", dup).Msg("after first insert")

			if err := sess.InsertRow(ctx, table, row); err != nil {
				return err
			}
			dup, err = sess.HasDuplicates(ctx, table, "id", 1)
			if err != nil {
				return err
			}
			log.Info().Bool("duplicates", dup).Msg("after second insert")

			if err := sess.DropTable(ctx, table); err != nil {
				return err
			}
			log.Info().Str("table", table).Msg("smoke round trip completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "example_table", "Scratch table name")
	return cmd
}
