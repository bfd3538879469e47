package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bif/internal/testsupport"
)

var burst = []float64{0, -0.7, 0.7, -1.3, 1.3, 0, -0.7, 0.7, -1.3, 1.3}

type cliEnv struct {
	root       string
	configPath string
	cachePath  string
}

// setupCLITestEnv writes a ten-frame bracketed burst under root/images and a
// config file that keeps every writable path inside the test's temp dir.
func setupCLITestEnv(t *testing.T, extra string) cliEnv {
	t.Helper()
	base := t.TempDir()
	env := cliEnv{
		root:       filepath.Join(base, "photos"),
		configPath: filepath.Join(base, "bif.toml"),
		cachePath:  filepath.Join(base, "cache", "metadata.db"),
	}
	testsupport.WriteBurst(t, filepath.Join(env.root, "images"), "DSC", burst...)

	content := fmt.Sprintf("[scan]\nworkers = 2\n\n[cache]\nenabled = true\npath = %q\n%s", env.cachePath, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
