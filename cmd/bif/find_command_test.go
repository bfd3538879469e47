package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"bif/internal/report"
)

func burstIDs(from, to int) string {
	ids := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, fmt.Sprintf("images/DSC%04d.JPG", i))
	}
	return strings.Join(ids, " ")
}

func TestFindPrintsGroupsAsText(t *testing.T) {
	env := setupCLITestEnv(t, "")

	stdout, stderr, err := runCLI(t, []string{"find", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("find: %v (stderr %q)", err, stderr)
	}
	want := "periodic " + burstIDs(1, 5) + "\n" +
		"periodic " + burstIDs(6, 10) + "\n"
	if stdout != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", stdout, want)
	}
	requireContains(t, stderr, "2 groups from 10 bracketed images")
	requireContains(t, stderr, "0 of 10 reads answered from cache")
}

func TestFindQuietSuppressesSummary(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, stderr, err := runCLI(t, []string{"find", "--quiet", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stderr != "" {
		t.Fatalf("expected empty stderr, got %q", stderr)
	}
}

func TestFindSecondRunUsesCache(t *testing.T) {
	env := setupCLITestEnv(t, "")

	if _, _, err := runCLI(t, []string{"find", env.root}, env.configPath); err != nil {
		t.Fatalf("first find: %v", err)
	}
	_, stderr, err := runCLI(t, []string{"find", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("second find: %v", err)
	}
	requireContains(t, stderr, "10 of 10 reads answered from cache")
}

func TestFindJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t, "")

	stdout, _, err := runCLI(t, []string{"find", "--json", "-q", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("find --json: %v", err)
	}
	var views []report.GroupView
	if err := json.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, stdout)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(views))
	}
	first := views[0]
	if first.Type != "periodic" || len(first.Entries) != 5 {
		t.Fatalf("unexpected first group: %+v", first)
	}
	entry := first.Entries[1]
	if entry.RelFilepath != "images/DSC0002.JPG" || entry.ExposureValue != -0.7 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Timestamp != "2019-02-13T00:31:51" {
		t.Fatalf("unexpected timestamp %q", entry.Timestamp)
	}
	requireContains(t, stdout, `"rel_filepath"`)
}

func TestFindYAMLOutput(t *testing.T) {
	env := setupCLITestEnv(t, "")

	stdout, _, err := runCLI(t, []string{"find", "--format", "yaml", "-q", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("find --format yaml: %v", err)
	}
	var views []report.GroupView
	if err := yaml.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, stdout)
	}
	if len(views) != 2 || views[1].Entries[0].RelFilepath != "images/DSC0006.JPG" {
		t.Fatalf("unexpected yaml groups: %+v", views)
	}
}

func TestFindTableOutput(t *testing.T) {
	env := setupCLITestEnv(t, "")

	stdout, _, err := runCLI(t, []string{"find", "-f", "table", "-q", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("find --format table: %v", err)
	}
	requireContains(t, stdout, "Periodic")
	requireContains(t, stdout, "images/DSC0010.JPG")
}

func TestFindRejectsConflictingFormats(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, []string{"find", "--json", "--format", "yaml", env.root}, env.configPath)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	requireContains(t, err.Error(), "--json conflicts with --format yaml")
}

func TestFindRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, []string{"find", "--format", "xml", env.root}, env.configPath)
	if err == nil {
		t.Fatal("expected format error")
	}
	requireContains(t, err.Error(), "unsupported output format")
}

func TestFindRejectsNonPositiveWorkers(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, []string{"find", "--workers", "0", env.root}, env.configPath)
	if err == nil {
		t.Fatal("expected workers error")
	}
	requireContains(t, err.Error(), "--workers must be positive")
}

func TestFindReportsInvalidConfig(t *testing.T) {
	env := setupCLITestEnv(t, "\n[classifier]\nsizes = [4]\n")

	_, _, err := runCLI(t, []string{"find", env.root}, env.configPath)
	if err == nil {
		t.Fatal("expected config error")
	}
	requireContains(t, err.Error(), "load config")
}

func TestFindMissingRoot(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, []string{"find", env.root + "/missing"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing root error")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		json    bool
		want    report.Format
		wantErr bool
	}{
		{name: "default", want: report.FormatText},
		{name: "json flag", json: true, want: report.FormatJSON},
		{name: "explicit", flag: "YAML", want: report.FormatYAML},
		{name: "json agrees", flag: "json", json: true, want: report.FormatJSON},
		{name: "conflict", flag: "table", json: true, wantErr: true},
		{name: "unknown", flag: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.flag, tt.json)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveFormat: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Cache", statusInfo, "3 of 4 reads answered from cache", false)
	if want := "Cache:     [INFO] 3 of 4 reads answered from cache"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := renderStatusLine("Metadata", statusWarn, "", false); got != "Metadata:  [WARN]" {
		t.Fatalf("unexpected warn line %q", got)
	}
}
