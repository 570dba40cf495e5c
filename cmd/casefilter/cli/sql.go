package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/gormfilter"
)

// dryRunDSN is never connected to; it only selects the postgres dialect.
const dryRunDSN = "host=localhost user=casefilter dbname=casefilter sslmode=disable"

func openDryRun() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: dryRunDSN}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	return db, errors.Wrap(err, "open postgres dialect")
}

// columnHook maps field ids to columns of table, renamed through columns.
func columnHook(table string, columns map[string]string) func(next gormfilter.FieldColumnFunc) gormfilter.FieldColumnFunc {
	return func(next gormfilter.FieldColumnFunc) gormfilter.FieldColumnFunc {
		return func(input *gormfilter.FieldColumnInput) (*gormfilter.FieldColumnOutput, error) {
			name := input.FieldName
			if col, ok := columns[name]; ok {
				name = col
			}
			var column any = clause.Column{Table: table, Name: name}
			if input.Fold {
				column = clause.Expr{SQL: fmt.Sprintf("LOWER(%s)", input.Statement.Quote(column))}
			}
			return &gormfilter.FieldColumnOutput{Column: column}, nil
		}
	}
}

func NewSQLCommand() *cobra.Command {
	var (
		format  string
		table   string
		fold    bool
		columns map[string]string
	)

	cmd := &cobra.Command{
		Use:   "sql [file]",
		Short: "Print the postgres query selecting rows that match the filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			dtos, err := readDTOs(cmd, args, format, &e.cfg.Limits)
			if err != nil {
				return err
			}
			f, err := casefilter.FilterFromDTOs(e.cfg.Fields, dtos, e.factory,
				casefilter.WithFilterLogger(e.logger),
				casefilter.WithLimits(&e.cfg.Limits),
			)
			if err != nil {
				return err
			}
			committed, err := f.Commit()
			if err != nil {
				return err
			}

			db, err := openDryRun()
			if err != nil {
				return err
			}
			opts := []gormfilter.Option{gormfilter.WithFieldColumnHook(columnHook(table, columns))}
			if fold {
				opts = append(opts, gormfilter.WithFold())
			}
			expr, err := gormfilter.BuildExpr(&gorm.Statement{DB: db, Table: table}, committed, opts...)
			if err != nil {
				return err
			}

			tx := db.Table(table)
			if expr != nil {
				tx = tx.Where(expr)
			}
			tx = tx.Find(&[]map[string]any{})
			if tx.Error != nil {
				return errors.Wrap(tx.Error, "build query")
			}

			e.logger.Debug().
				Str("table", table).
				Int("conditions", len(committed)).
				Msg("query built")

			_, err = fmt.Fprintln(cmd.OutOrStdout(), db.Dialector.Explain(tx.Statement.SQL.String(), tx.Statement.Vars...))
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "input format (json, proto)")
	cmd.Flags().StringVar(&table, "table", "cases", "table to select from")
	cmd.Flags().BoolVar(&fold, "fold", false, "compare text case-insensitively")
	cmd.Flags().StringToStringVar(&columns, "column", nil, "field to column mapping, e.g. --column amount=order_amount")

	return cmd
}
