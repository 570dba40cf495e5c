package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/theplant/casefilter/condition"
)

func NewFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the configured filter fields and their conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCONDITIONS")
			for _, f := range e.cfg.Fields {
				names := lo.Map(f.AcceptableConditions, func(tag condition.Tag, _ int) string {
					return tag.DisplayName()
				})
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.DisplayName, f.Category, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}
}
