package main

import (
	"fmt"
	"os"

	"github.com/theplant/casefilter/cmd/casefilter/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())
	root.AddCommand(cli.NewConfigCommand())
	root.AddCommand(cli.NewFieldsCommand())
	root.AddCommand(cli.NewValidateCommand())
	root.AddCommand(cli.NewSQLCommand())
	root.AddCommand(cli.NewSuggestCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
