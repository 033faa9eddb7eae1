package status

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	format, date, output, tenant = "text", "", "", ""
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&bytes.Buffer{})
	Cmd.SetArgs(args)
	Cmd.SetContext(context.Background())
	err := Cmd.Execute()
	return out.String(), err
}

func withApp(t *testing.T) {
	t.Helper()
	app := testutil.NewApp(t)
	app.SeedDeposits(t)
	original := root.AppContainer
	root.AppContainer = app.Container
	t.Cleanup(func() { root.AppContainer = original })
}

func TestStatusCommand(t *testing.T) {
	withApp(t)

	out, err := run(t, "--date", "2026-01-20")
	require.NoError(t, err)
	assert.Contains(t, out, "山田太郎")
	assert.Contains(t, out, "24,500")
	assert.Contains(t, out, "2 tenants, 1 delinquent")
}

func TestStatusCommand_CSVToFile(t *testing.T) {
	withApp(t)
	path := filepath.Join(t.TempDir(), "status.csv")

	_, err := run(t, "--date", "2026-01-20", "--format", "csv", "--output", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "101,"))
}

func TestStatusCommand_Ledger(t *testing.T) {
	withApp(t)

	out, err := run(t, "--date", "2026-01-20", "--tenant", "102")
	require.NoError(t, err)
	assert.Contains(t, out, "102 佐藤花子")

	_, err = run(t, "--tenant", "999")
	assert.Error(t, err)
}

func TestStatusCommand_InvalidInput(t *testing.T) {
	withApp(t)

	_, err := run(t, "--format", "xml")
	assert.Error(t, err)

	_, err = run(t, "--date", "someday")
	assert.Error(t, err)
}
