package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	opts = Options{Format: "text"}
	var out, errOut bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&errOut)
	Cmd.SetArgs(args)
	Cmd.SetContext(context.Background())
	err := Cmd.Execute()
	return out.String(), errOut.String(), err
}

func withApp(t *testing.T) *testutil.App {
	t.Helper()
	app := testutil.NewApp(t)
	original := root.AppContainer
	root.AppContainer = app.Container
	t.Cleanup(func() { root.AppContainer = original })
	return app
}

func TestIngestCommand_Commit(t *testing.T) {
	app := withApp(t)
	path := testutil.WriteFile(t, "bank.csv", testutil.BankCSV)

	out, _, err := run(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 matched, 0 duplicates, 1 unmatched, 2 committed")

	deposits, err := app.Store.FetchDeposits(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, deposits, 2)

	out, _, err = run(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 matched, 2 duplicates")
}

func TestIngestCommand_DryRunJSON(t *testing.T) {
	app := withApp(t)
	path := testutil.WriteFile(t, "bank.csv", testutil.BankCSV)

	out, _, err := run(t, path, "--dry-run", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"dry_run": true`)

	deposits, err := app.Store.FetchDeposits(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, deposits)
}

func TestIngestCommand_Export(t *testing.T) {
	withApp(t)
	path := testutil.WriteFile(t, "bank.csv", testutil.BankCSV)
	export := filepath.Join(t.TempDir(), "canonical.csv")

	_, _, err := run(t, path, "--dry-run", "--export", export)
	require.NoError(t, err)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,amount,description", lines[0])
	assert.Equal(t, "2026-01-15,60000,振込 ﾔﾏﾀﾞ ﾀﾛｳ", lines[1])
}

func TestIngestCommand_ExplicitMappingSavesTemplate(t *testing.T) {
	app := withApp(t)
	path := testutil.WriteFile(t, "bank.csv", "when,how much,who\n2026/01/15,60000,振込 ﾔﾏﾀﾞ ﾀﾛｳ\n")

	_, stderr, err := run(t, path, "--dry-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, parsererror.ErrMappingRequired)
	assert.Contains(t, stderr, "--amount-col")

	_, _, err = run(t, path, "--date-col", "when", "--amount-col", "how much", "--sender-col", "who",
		"--save-template", "--label", "odd bank")
	require.NoError(t, err)

	templates, err := app.Container.GetTemplates().List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "odd bank", templates[0].Label)
}

func TestIngestCommand_Validation(t *testing.T) {
	withApp(t)

	_, _, err := run(t, "/nonexistent/bank.csv")
	assert.Error(t, err)

	path := testutil.WriteFile(t, "bank.csv", testutil.BankCSV)
	_, _, err = run(t, path, "--format", "xml")
	assert.Error(t, err)

	_, _, err = run(t, path, "--amount-col", "金額")
	assert.ErrorIs(t, err, parsererror.ErrMappingRequired)
}

func TestIngestCommand_NotInitialized(t *testing.T) {
	original := root.AppContainer
	root.AppContainer = nil
	defer func() { root.AppContainer = original }()

	_, _, err := run(t, testutil.WriteFile(t, "bank.csv", testutil.BankCSV))
	assert.ErrorIs(t, err, root.ErrNotInitialized)
}
