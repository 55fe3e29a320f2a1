package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nconklindev/csvmaker/internal/converter"
)

// runCLI executes the root command in an isolated working directory and
// returns its standard output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	root := NewRootCmd(BuildInfo{Version: "test"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hours.txt"), []byte("Alice| 7.5\nBob|8\n"), 0o644))

	out, err := runCLI(t, dir, "convert", "--delimiter", "pipe", "--qualifier", `"`,
		"--out", "csv", "--report", "report.yaml", "hours.txt")
	require.NoError(t, err)

	assert.Contains(t, out, "hours.txt: Done!")
	assert.Contains(t, out, "Job complete.")

	data, err := os.ReadFile(filepath.Join(dir, "csv", "hours.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\"Alice\",\"7.5\"\n\"Bob\",\"8\"\n", string(data))

	report, err := os.ReadFile(filepath.Join(dir, "report.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "run_id:")
	assert.Contains(t, string(report), "status: success")
}

func TestConvertCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1,2\n3,4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("1,2\n3\n"), 0o644))

	out, err := runCLI(t, dir, "convert", "--out", "csv", "a.txt", "b.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	assert.Contains(t, out, "a.txt: Done!")
	assert.Contains(t, out, "b.txt: Error on line 2: "+converter.MismatchMessage)
	assert.Contains(t, out, "Job complete.")
	assert.FileExists(t, filepath.Join(dir, "csv", "a.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "csv", "b.csv"))
}

func TestConvertCommand_FixedWidthFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := "format: fixed-width\nwidths: 2,3\nstrict: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "csvmaker.yaml"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.s01"), []byte("ab123cd456"), 0o644))

	out, err := runCLI(t, dir, "convert", "--out", "csv", "data.s01")
	require.NoError(t, err, out)

	data, err := os.ReadFile(filepath.Join(dir, "csv", "data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ab,123\ncd,456\n", string(data))
}

func TestConvertCommand_InvalidSettings(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "convert", "--format", "fixed", "x.txt")
	assert.Error(t, err, "fixed width without widths")

	_, err = runCLI(t, dir, "convert", "--qualifier", " ", "x.txt")
	assert.Error(t, err, "whitespace qualifier")

	_, err = runCLI(t, dir, "convert", "a.txt", "b.csv")
	assert.Error(t, err, "mixed extensions")

	_, err = runCLI(t, dir, "convert")
	assert.Error(t, err, "no files")
}

func TestWidthsCommand(t *testing.T) {
	dir := t.TempDir()
	layout := strings.Repeat("header\n", converter.LayoutHeaderLines) + "ID 9 1\nNAME 25 10\n\nDATE 8 35\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layout.txt"), []byte(layout), 0o644))

	out, err := runCLI(t, dir, "widths", "layout.txt")
	require.NoError(t, err)
	assert.Equal(t, "9,25,8\n", out)
}

func TestQueryCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE hours (name TEXT, total REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO hours VALUES ('Alice', 7.5), ('Bob', NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runCLI(t, dir, "query", "--dsn", dbPath, "--sql", "SELECT name, total FROM hours ORDER BY name",
		"--qualifier", "'", "-o", "hours.csv")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Done!")
	assert.Contains(t, out, "2 rows written")

	data, err := os.ReadFile(filepath.Join(dir, "hours.csv"))
	require.NoError(t, err)
	assert.Equal(t, "'Alice','7.5'\n'Bob',''\n", string(data))

	out, err = runCLI(t, dir, "query", "--dsn", dbPath, "--sql", "SELECT * FROM missing", "-o", "bad.csv")
	require.Error(t, err)
	assert.Contains(t, out, "Error:")
	assert.NoFileExists(t, filepath.Join(dir, "bad.csv"))
}
