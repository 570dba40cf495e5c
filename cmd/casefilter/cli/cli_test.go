package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/theplant/casefilter/cmd/casefilter/cli"
	"github.com/theplant/casefilter/config"
)

func newRoot() *cobra.Command {
	viper.Reset()
	root := cli.NewRootCommand(cli.VersionInfo{Version: "1.2.3", Commit: "abc"})
	root.AddCommand(cli.NewVersionCommand())
	root.AddCommand(cli.NewConfigCommand())
	root.AddCommand(cli.NewFieldsCommand())
	root.AddCommand(cli.NewValidateCommand())
	root.AddCommand(cli.NewSQLCommand())
	root.AddCommand(cli.NewSuggestCommand())
	return root
}

func writeConfig(t *testing.T) string {
	t.Helper()
	data, err := config.ExampleYAML()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "casefilter.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version", "--config", writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "casefilter 1.2.3 (abc)\n", out)
}

func TestConfigGenerate(t *testing.T) {
	cfgPath := writeConfig(t)
	dir := t.TempDir()

	out, err := run(t, "", "config", "generate", "--config", cfgPath, "--output", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Generated")

	generated, err := config.ReadFile(filepath.Join(dir, "casefilter.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Example().Fields, generated.Fields)

	out, err = run(t, "", "config", "generate", "--config", cfgPath, "--output", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Skipping")
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, "", "config", "show", "--config", writeConfig(t), "--log-level", "debug")
	require.NoError(t, err)
	require.Contains(t, out, "level: debug")
	require.Contains(t, out, "id: amount")
}

func TestFields(t *testing.T) {
	out, err := run(t, "", "fields", "--config", writeConfig(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
	require.Contains(t, lines[1], "Order amount")
	require.Contains(t, lines[1], "Between, Not between, Greater, Less, Equal")
	require.Contains(t, lines[5], "Is true")
}

func TestValidate(t *testing.T) {
	cfgPath := writeConfig(t)

	t.Run("valid", func(t *testing.T) {
		out, err := run(t, `[{"field":"amount","condition":"BETWEEN","values":["5","10"]}]`,
			"validate", "--config", cfgPath)
		require.NoError(t, err)
		require.Contains(t, out, `"valid":true`)
		require.Contains(t, out, `"Order amount: Between (5 - 10)"`)
	})

	t.Run("invalid", func(t *testing.T) {
		out, err := run(t, `[{"field":"amount","condition":"BETWEEN","values":["-5","10"]}]`,
			"validate", "--config", cfgPath)
		require.ErrorIs(t, err, cli.ErrInvalid)
		require.Contains(t, out, `"valid":false`)
		require.Contains(t, out, "Value is below the allowed lower bound")
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filter.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"field":"escalated","condition":"IS_TRUE","values":["true"]}]`), 0o644))
		out, err := run(t, "", "validate", "--config", cfgPath, path)
		require.NoError(t, err)
		require.Contains(t, out, `"valid":true`)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := run(t, `[{"field":"nope","condition":"IN","values":["x"]}]`,
			"validate", "--config", cfgPath)
		require.ErrorContains(t, err, "nope")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, `[]`, "validate", "--config", cfgPath, "--format", "xml")
		require.ErrorContains(t, err, `unknown input format "xml"`)
	})
}

func TestSQL(t *testing.T) {
	cfgPath := writeConfig(t)

	testCases := []struct {
		name    string
		input   string
		args    []string
		wantSQL string
	}{
		{
			name:    "no conditions",
			input:   `[]`,
			wantSQL: `SELECT * FROM "cases"`,
		},
		{
			name:    "single condition",
			input:   `[{"field":"amount","condition":"GREATER","values":["100"]}]`,
			wantSQL: `SELECT * FROM "cases" WHERE "cases"."amount" > 100`,
		},
		{
			name:    "renamed column and table",
			input:   `[{"field":"amount","condition":"GREATER","values":["100"]}]`,
			args:    []string{"--table", "tickets", "--column", "amount=order_total"},
			wantSQL: `SELECT * FROM "tickets" WHERE "tickets"."order_total" > 100`,
		},
		{
			name: "folded text",
			input: `[{"field":"amount","condition":"GREATER","values":["100"]},
				{"field":"subject","condition":"CONTAINS","values":["Refund"]}]`,
			args:    []string{"--fold"},
			wantSQL: `SELECT * FROM "cases" WHERE ("cases"."amount" > 100 AND LOWER("cases"."subject") LIKE '%refund%')`,
		},
		{
			name:    "proto input",
			input:   `[{"field":"country","condition":"IN","values":["US","CA"]}]`,
			args:    []string{"--format", "proto"},
			wantSQL: `SELECT * FROM "cases" WHERE "cases"."country" IN ('US','CA')`,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"sql", "--config", cfgPath}, tt.args...)
			out, err := run(t, tt.input, args...)
			require.NoError(t, err)
			require.Equal(t, tt.wantSQL, strings.TrimSpace(out))
		})
	}

	t.Run("invalid filter is rejected", func(t *testing.T) {
		_, err := run(t, `[{"field":"amount","condition":"GREATER","values":["abc"]}]`, "sql", "--config", cfgPath)
		require.Error(t, err)
	})
}

func TestSuggestNotConfigured(t *testing.T) {
	_, err := run(t, "", "suggest", "country", "--config", writeConfig(t))
	require.ErrorContains(t, err, "suggest.base_url is not configured")
}
