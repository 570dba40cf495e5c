package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <field> [prefix]",
		Short: "Fetch value suggestions for a membership field",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			client, err := e.cfg.Suggest.NewClient(e.logger)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("suggest.base_url is not configured")
			}

			prefix := ""
			if len(args) > 1 {
				prefix = args[1]
			}
			values, err := client.Suggest(cmd.Context(), args[0], prefix)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
