package cli

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/theplant/casefilter"
	"github.com/theplant/casefilter/condition"
	"github.com/theplant/casefilter/protofilter"
)

// ErrInvalid is returned by commands that found invalid conditions after
// printing their report.
var ErrInvalid = errors.New("filter is invalid")

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "read filter from stdin")
	}
	data, err := os.ReadFile(args[0])
	return data, errors.Wrapf(err, "read filter %s", args[0])
}

func readDTOs(cmd *cobra.Command, args []string, format string, limits *casefilter.Limits) ([]condition.DTO, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return casefilter.UnmarshalDTOs(data)
	case "proto":
		return protofilter.UnmarshalJSON(data, protofilter.WithLimits(limits))
	default:
		return nil, errors.Errorf("unknown input format %q", format)
	}
}

func NewValidateCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate filter condition DTOs and print a JSON report",
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

			report, err := f.MarshalReport()
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(append(report, '\n')); err != nil {
				return err
			}
			if !f.IsValid() {
				return ErrInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "input format (json, proto)")

	return cmd
}
