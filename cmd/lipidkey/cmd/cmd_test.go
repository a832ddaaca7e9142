package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const series = `NAME: PC 32:0
PRECURSORMZ: 734.5694
RETENTIONTIME: 6.0
IONMODE: positive
Num Peaks: 2
734.5694 100
756.5513 40

NAME: PC 34:0
PRECURSORMZ: 762.6007
RETENTIONTIME: 7.0
IONMODE: positive
Num Peaks: 0

NAME: PC 36:0
PRECURSORMZ: 790.6320
RETENTIONTIME: 8.0
IONMODE: positive
Num Peaks: 0
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	in := filepath.Join(dir, "series.msp")
	require.NoError(t, os.WriteFile(in, []byte(series), 0o644))
	db := filepath.Join(dir, "results.db")

	out, err := run(t, "score", "--in", in, "--out", db, "--workers", "2", "--log-format", "json", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "PC 34:0")
	assert.Contains(t, out, "[M+H]+")
	assert.Contains(t, out, "carbons-consistent")
	assert.Contains(t, out, "Adducts inferred: 1")

	_, err = os.Stat(db)
	require.NoError(t, err)

	_, err = run(t, "score", "--in", in, "--out", db, "--log-level", "error")
	assert.Error(t, err, "existing output without --overwrite")
}

func TestAdductsCommand(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := run(t, "adducts", "negative")
	require.NoError(t, err)
	assert.Contains(t, out, "NEGATIVE (built-in)")
	assert.Contains(t, out, "[M+Cl]-")
	assert.NotContains(t, out, "[M+Na]+")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	in := filepath.Join(dir, "series.msp")
	require.NoError(t, os.WriteFile(in, []byte(series), 0o644))

	out, err := run(t, "validate", in)
	require.NoError(t, err)
	assert.Contains(t, out, "Annotations: 3")
	assert.Contains(t, out, "Lipid species: 3")
	assert.Contains(t, out, "OK")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := run(t, "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "lipidkey.toml"))
	require.NoError(t, err)

	_, err = run(t, "config", "init")
	assert.Error(t, err)

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_tolerance")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
