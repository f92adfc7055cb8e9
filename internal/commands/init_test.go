package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrizq/rizq/internal/categories"
	"github.com/myrizq/rizq/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "rizq-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "rizq")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/rizq")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runRizq(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runRizq(t, "init", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Initialized rizq project")

	for _, d := range []string{"data", filepath.Join("data", "import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runRizq(t, "init", dir, "--base-currency", "eur")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Ledger.BaseCurrency)
	assert.Equal(t, 80, cfg.Ledger.AlertThreshold)
	require.NoError(t, cfg.Validate())
}

func TestInit_Categories(t *testing.T) {
	dir := t.TempDir()
	_, err := runRizq(t, "init", dir)
	require.NoError(t, err)

	catalog, err := categories.Load(filepath.Join(dir, "categories.csv"))
	require.NoError(t, err)
	assert.Equal(t, categories.Defaults(), catalog.All())
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runRizq(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"data/", ".env"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := t.TempDir()
	_, err := runRizq(t, "init", dir)
	require.NoError(t, err)

	_, err = runRizq(t, "init", dir)
	require.Error(t, err, "second init should fail")
}

func TestInit_RejectsBadCurrency(t *testing.T) {
	_, err := runRizq(t, "init", t.TempDir(), "--base-currency", "dollars")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runRizq(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
